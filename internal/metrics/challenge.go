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
	// ChallengesIssued tracks challenges sent by type.
	ChallengesIssued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenges",
			Name:      "issued_total",
			Help:      "Total number of challenges issued",
		},
		[]string{"type"}, // challenge_user_pk, challenge_user_has_pk
	)

	// ChallengesCompleted tracks challenge outcomes by type and status.
	ChallengesCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenges",
			Name:      "completed_total",
			Help:      "Total number of challenges completed",
		},
		[]string{"type", "status"}, // success, failure
	)

	// ChallengeDuration tracks challenge round-trip duration.
	ChallengeDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "challenges",
			Name:      "duration_seconds",
			Help:      "Challenge round-trip duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"type"},
	)
)
