// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SeeksInitiated tracks seek_user frames sent to the address book.
	SeeksInitiated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seek",
			Name:      "initiated_total",
			Help:      "Total number of seek_user operations initiated",
		},
	)

	// SeeksPropagated tracks how many peers a seek_user frame was
	// forwarded to during flooding.
	SeeksPropagated = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "seek",
			Name:      "propagated_peers",
			Help:      "Number of peers a seek_user frame was propagated to",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		},
	)

	// SeeksDroppedCustodyLimit counts seeks stopped by the 4-hop custody
	// chain limit rather than propagated further.
	SeeksDroppedCustodyLimit = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seek",
			Name:      "dropped_custody_limit_total",
			Help:      "Total number of seek_user frames dropped at the custody chain hop limit",
		},
	)

	// SeekTokenMatches tracks seek_user_response token lookups by result.
	SeekTokenMatches = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seek",
			Name:      "token_matches_total",
			Help:      "Total number of seek_token lookups on seek_user_response by result",
		},
		[]string{"result"}, // matched, not_found
	)
)
