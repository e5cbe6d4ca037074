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
	// MessagesTransferred tracks completed three-phase message transfers.
	MessagesTransferred = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "transferred_total",
			Help:      "Total number of messages transferred",
		},
		[]string{"disposition", "status"}, // text/binary, success/failure
	)

	// MessageChunksReceived tracks individual send_message chunk frames.
	MessageChunksReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "chunks_received_total",
			Help:      "Total number of send_message chunk frames received",
		},
	)

	// MessageChunkSize tracks chunk payload sizes.
	MessageChunkSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "chunk_size_bytes",
			Help:      "Size of individual message chunks in bytes",
			Buckets:   prometheus.LinearBuckets(0, 512, 9), // up to the 4096-byte chunk size
		},
	)

	// MessageTransferDuration tracks key-to-term elapsed time for a message.
	MessageTransferDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "transfer_duration_seconds",
			Help:      "Elapsed time from send_message_key to send_message_term",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)
)
