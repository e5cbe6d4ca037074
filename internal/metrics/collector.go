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
	"sync"
	"time"
)

// MetricsCollector is an in-process rolling snapshot of pckr operations,
// independent of the prometheus registry above. It is read in-process
// through GetSnapshot rather than by scraping /metrics.
type MetricsCollector struct {
	mu sync.RWMutex

	// Counters
	FramesProcessed   int64
	SeekPropagations  int64
	ChallengesIssued  int64
	ChallengesPassed  int64
	ChallengesFailed  int64
	MaintenanceCycles int64
	PingsSucceeded    int64
	PingsFailed       int64

	// Timing metrics (in microseconds)
	FrameProcessingTimes []int64
	ChallengeTimes        []int64
	MaintenanceCycleTimes []int64

	startTime time.Time

	maxTimingSamples int
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:        time.Now(),
		maxTimingSamples: 1000, // Keep last 1000 samples for each timing metric
	}
}

// RecordFrame records a processed frame.
func (mc *MetricsCollector) RecordFrame(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.FramesProcessed++
	mc.recordTiming(&mc.FrameProcessingTimes, duration)
}

// RecordSeekPropagation records a seek_user frame forwarded to a peer.
func (mc *MetricsCollector) RecordSeekPropagation() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.SeekPropagations++
}

// RecordChallenge records a challenge outcome.
func (mc *MetricsCollector) RecordChallenge(success bool, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.ChallengesIssued++
	if success {
		mc.ChallengesPassed++
	} else {
		mc.ChallengesFailed++
	}
	mc.recordTiming(&mc.ChallengeTimes, duration)
}

// RecordPing records a ping_user outcome observed by the maintenance loop.
func (mc *MetricsCollector) RecordPing(success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if success {
		mc.PingsSucceeded++
	} else {
		mc.PingsFailed++
	}
}

// RecordMaintenanceCycle records one maintenance loop iteration.
func (mc *MetricsCollector) RecordMaintenanceCycle(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.MaintenanceCycles++
	mc.recordTiming(&mc.MaintenanceCycleTimes, duration)
}

// recordTiming records a timing sample
func (mc *MetricsCollector) recordTiming(timings *[]int64, duration time.Duration) {
	microseconds := duration.Microseconds()
	*timings = append(*timings, microseconds)

	if len(*timings) > mc.maxTimingSamples {
		*timings = (*timings)[len(*timings)-mc.maxTimingSamples:]
	}
}

// GetSnapshot returns a snapshot of current metrics
func (mc *MetricsCollector) GetSnapshot() *MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return &MetricsSnapshot{
		Timestamp:             time.Now(),
		Uptime:                time.Since(mc.startTime),
		FramesProcessed:       mc.FramesProcessed,
		SeekPropagations:      mc.SeekPropagations,
		ChallengesIssued:      mc.ChallengesIssued,
		ChallengesPassed:      mc.ChallengesPassed,
		ChallengesFailed:      mc.ChallengesFailed,
		MaintenanceCycles:     mc.MaintenanceCycles,
		PingsSucceeded:        mc.PingsSucceeded,
		PingsFailed:           mc.PingsFailed,
		AvgFrameProcessingTime: calculateAverage(mc.FrameProcessingTimes),
		AvgChallengeTime:       calculateAverage(mc.ChallengeTimes),
		AvgMaintenanceCycleTime: calculateAverage(mc.MaintenanceCycleTimes),
		P95FrameProcessingTime:  calculatePercentile(mc.FrameProcessingTimes, 95),
		P95ChallengeTime:        calculatePercentile(mc.ChallengeTimes, 95),
		P95MaintenanceCycleTime: calculatePercentile(mc.MaintenanceCycleTimes, 95),
	}
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.FramesProcessed = 0
	mc.SeekPropagations = 0
	mc.ChallengesIssued = 0
	mc.ChallengesPassed = 0
	mc.ChallengesFailed = 0
	mc.MaintenanceCycles = 0
	mc.PingsSucceeded = 0
	mc.PingsFailed = 0

	mc.FrameProcessingTimes = nil
	mc.ChallengeTimes = nil
	mc.MaintenanceCycleTimes = nil

	mc.startTime = time.Now()
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	FramesProcessed   int64
	SeekPropagations  int64
	ChallengesIssued  int64
	ChallengesPassed  int64
	ChallengesFailed  int64
	MaintenanceCycles int64
	PingsSucceeded    int64
	PingsFailed       int64

	AvgFrameProcessingTime  float64
	AvgChallengeTime        float64
	AvgMaintenanceCycleTime float64

	P95FrameProcessingTime  int64
	P95ChallengeTime        int64
	P95MaintenanceCycleTime int64
}

// GetChallengeSuccessRate returns the challenge success rate as a percentage
func (ms *MetricsSnapshot) GetChallengeSuccessRate() float64 {
	if ms.ChallengesIssued == 0 {
		return 0
	}
	return float64(ms.ChallengesPassed) / float64(ms.ChallengesIssued) * 100
}

// GetPingSuccessRate returns the ping success rate as a percentage
func (ms *MetricsSnapshot) GetPingSuccessRate() float64 {
	total := ms.PingsSucceeded + ms.PingsFailed
	if total == 0 {
		return 0
	}
	return float64(ms.PingsSucceeded) / float64(total) * 100
}

// Helper functions

func calculateAverage(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func calculatePercentile(values []int64, percentile int) int64 {
	if len(values) == 0 {
		return 0
	}

	index := len(values) * percentile / 100
	if index >= len(values) {
		index = len(values) - 1
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)

	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	return sorted[index]
}

// Global metrics collector instance
var globalCollector = NewMetricsCollector()

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *MetricsCollector {
	return globalCollector
}
