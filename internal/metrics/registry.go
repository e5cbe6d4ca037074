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

// Package metrics exposes prometheus instrumentation for the Surface's
// frame handling, seek propagation, challenges and message chunking, plus
// the maintenance loop. cmd/pckr's "metrics" subcommand serves Registry
// over HTTP for operators who want it (§10.5 of the design doc).
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pckr"

// Registry is the prometheus registry every metric in this package
// registers against. cmd/pckr's metrics server points promhttp at it.
var Registry = prometheus.NewRegistry()
