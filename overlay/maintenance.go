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

package overlay

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonhillmtl/pckr/internal/logger"
	"github.com/jonhillmtl/pckr/internal/metrics"
)

// MinMaintenanceInterval and MaxMaintenanceInterval bound the uniformly
// drawn delay between maintenance cycles.
const (
	MinMaintenanceInterval = 60 * time.Second
	MaxMaintenanceInterval = 120 * time.Second
)

// RunMaintenanceLoop runs the periodic maintenance cycle until ctx is
// canceled: every interval, drawn uniformly from [MinMaintenanceInterval,
// MaxMaintenanceInterval] (or e.MaintenanceMinInterval/MaxInterval, when
// set), it seeks every known-public-key peer with no address, then
// pings, challenges and evicts stale address-book entries.
func (e *Engine) RunMaintenanceLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.randomMaintenanceInterval()):
			e.RunMaintenanceCycle()
		}
	}
}

// RunMaintenanceCycle runs a single maintenance pass synchronously; the
// caller controls scheduling. RunMaintenanceLoop calls it on each tick,
// and tests call it directly.
func (e *Engine) RunMaintenanceCycle() {
	start := time.Now()
	defer func() {
		metrics.MaintenanceCycles.Inc()
		metrics.MaintenanceCycleDuration.Observe(time.Since(start).Seconds())
	}()

	ipcache := e.Store.IPCacheList()

	for username := range e.Store.PublicKeyList() {
		if _, known := ipcache[username]; known {
			continue
		}
		if _, err := e.SeekUser(username); err != nil {
			e.Log.Debug("maintenance: seek skipped", logger.Username(username), logger.Error(err))
		}
	}

	for username := range ipcache {
		if e.PingUsername(username) {
			metrics.MaintenancePings.WithLabelValues("reachable").Inc()
			if _, known := e.Store.PublicKeyGet(username); known {
				if !e.ChallengeUserPK(username) {
					e.evictAndReseek(username)
				}
			}
			continue
		}
		metrics.MaintenancePings.WithLabelValues("unreachable").Inc()
		if _, err := e.SeekUser(username); err != nil {
			e.Log.Debug("maintenance: re-seek after ping failure skipped", logger.Username(username), logger.Error(err))
		}
	}
}

func (e *Engine) evictAndReseek(username string) {
	e.Store.IPCacheRemove(username)
	metrics.MaintenanceEvictions.Inc()
	if _, err := e.SeekUser(username); err != nil {
		e.Log.Debug("maintenance: re-seek after challenge failure skipped", logger.Username(username), logger.Error(err))
	}
}

// randomMaintenanceInterval draws the delay before the next cycle,
// honoring e.MaintenanceMinInterval/MaintenanceMaxInterval when the
// caller set both to a positive, sane span, and falling back to
// [MinMaintenanceInterval, MaxMaintenanceInterval] otherwise.
func (e *Engine) randomMaintenanceInterval() time.Duration {
	min, max := MinMaintenanceInterval, MaxMaintenanceInterval
	if e.MaintenanceMinInterval > 0 && e.MaintenanceMaxInterval > e.MaintenanceMinInterval {
		min, max = e.MaintenanceMinInterval, e.MaintenanceMaxInterval
	}
	span := max - min
	return min + time.Duration(rand.Int63n(int64(span)))
}
