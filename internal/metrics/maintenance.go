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
	// MaintenanceCycles tracks completed maintenance loop iterations.
	MaintenanceCycles = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "cycles_total",
			Help:      "Total number of maintenance loop cycles run",
		},
	)

	// MaintenanceCycleDuration tracks how long one maintenance cycle took.
	MaintenanceCycleDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one maintenance loop cycle in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	// MaintenancePings tracks ping_user results issued during maintenance.
	MaintenancePings = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "pings_total",
			Help:      "Total number of ping_user calls issued by the maintenance loop",
		},
		[]string{"status"}, // reachable, unreachable
	)

	// MaintenanceEvictions tracks address-book entries removed after a
	// failed challenge, triggering a re-seek.
	MaintenanceEvictions = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "evictions_total",
			Help:      "Total number of address-book entries evicted after a failed challenge",
		},
	)
)
