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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonhillmtl/pckr/internal/metrics"
)

var metricsAddr string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "serve Prometheus metrics for this identity's surface process",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := metricsAddr
		if !cmd.Flags().Changed("addr") && cfg != nil && cfg.Metrics != nil && cfg.Metrics.Addr != "" {
			addr = cfg.Metrics.Addr
		}
		fmt.Printf("serving metrics on %s/metrics\n", addr)
		if err := metrics.StartServer(addr); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAddr, "addr", ":9090", "address to serve /metrics on")
	rootCmd.AddCommand(metricsCmd)
}
