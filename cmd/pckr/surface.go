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
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonhillmtl/pckr/internal/logger"
	"github.com/jonhillmtl/pckr/transport"
)

var surfaceMaxPortAttempts int

var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "bind this identity's listening surface and run the maintenance loop",
	Long: `surface binds a TCP listener on --ip/--port (retrying up the
port range on bind conflicts), serves inbound frames against this
identity's Engine, and runs the periodic maintenance cycle until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return fmt.Errorf("surface: %w", err)
		}

		ip, port := resolveIPPort(cmd)

		maxAttempts := surfaceMaxPortAttempts
		if !cmd.Flags().Changed("max-port-attempts") && cfg != nil && cfg.Surface != nil && cfg.Surface.PortRetries > 0 {
			maxAttempts = cfg.Surface.PortRetries
		}

		srf, err := transport.Listen(ip, port, maxAttempts, engine.Handle, engine.Log)
		if err != nil {
			return fmt.Errorf("surface: %w", err)
		}
		defer srf.Close()

		if cfg != nil && cfg.Surface != nil && cfg.Surface.ReadTimeout > 0 {
			srf.SetReadTimeout(cfg.Surface.ReadTimeout)
		}

		boundIP, boundPortStr, err := net.SplitHostPort(srf.Addr().String())
		if err != nil {
			return fmt.Errorf("surface: %w", err)
		}
		boundPort, err := strconv.Atoi(boundPortStr)
		if err != nil {
			return fmt.Errorf("surface: %w", err)
		}
		if boundIP == "0.0.0.0" || boundIP == "::" {
			boundIP = ip
		}
		engine.SelfIP, engine.SelfPort = boundIP, boundPort
		if err := engine.Store.SaveCurrentIPPort(boundIP, boundPort); err != nil {
			engine.Log.Warn("failed to persist bound address", logger.Error(err))
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go engine.RunMaintenanceLoop(ctx)

		errCh := make(chan error, 1)
		go func() { errCh <- srf.Serve() }()

		engine.Log.Info("surface up", logger.String("addr", srf.Addr().String()), logger.String("username", engine.Store.Username()))

		select {
		case <-ctx.Done():
			engine.Log.Info("surface shutting down")
			return nil
		case err := <-errCh:
			return fmt.Errorf("surface: serve: %w", err)
		}
	},
}

func init() {
	surfaceCmd.Flags().IntVar(&surfaceMaxPortAttempts, "max-port-attempts", 10, "number of successive ports to try before giving up")
	rootCmd.AddCommand(surfaceCmd)
}
