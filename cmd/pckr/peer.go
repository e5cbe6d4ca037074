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
	"time"

	"github.com/spf13/cobra"

	"github.com/jonhillmtl/pckr/health"
)

var seekCmd = &cobra.Command{
	Use:   "seek [username]",
	Short: "flood the overlay looking for a peer's current address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		propagated, err := engine.SeekUser(args[0])
		if err != nil {
			return fmt.Errorf("seek: %w", err)
		}
		fmt.Printf("propagated to %d peer(s)\n", propagated)
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping [username]",
	Short: "check whether a known peer is reachable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		if !engine.PingUsername(args[0]) {
			return fmt.Errorf("ping: %s unreachable", args[0])
		}
		fmt.Println("pong")
		return nil
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce [username]",
	Short: "tell a known peer our current (ip, port) directly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		resp := engine.Surface(args[0])
		if !resp.Success {
			return fmt.Errorf("announce: %s", resp.Error)
		}
		return nil
	},
}

var challengePKCmd = &cobra.Command{
	Use:   "challenge-pk [username]",
	Short: "verify a peer can decrypt with the public key we have on file for them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		if !engine.ChallengeUserPK(args[0]) {
			return fmt.Errorf("challenge-pk: %s failed the challenge", args[0])
		}
		fmt.Println("ok")
		return nil
	},
}

var challengeHasPKCmd = &cobra.Command{
	Use:   "challenge-haspk [username]",
	Short: "verify a peer already holds our public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		if !engine.ChallengeUserHasPK(args[0]) {
			return fmt.Errorf("challenge-haspk: %s does not hold our key", args[0])
		}
		fmt.Println("ok")
		return nil
	},
}

var pulseCmd = &cobra.Command{
	Use:   "pulse",
	Short: "flood a reachability tracer to every known peer",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("pulsed %d peer(s)\n", engine.PulseNetwork())
		return nil
	},
}

var topoCmd = &cobra.Command{
	Use:   "topo",
	Short: "cross-check our view of the network and report this agent's own health",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}

		checker := health.NewHealthChecker(5 * time.Second)
		checker.SetLogger(engine.Log)
		checker.RegisterCheck("identity_store", func(ctx context.Context) error {
			if engine.Store.Username() == "" {
				return fmt.Errorf("identity store has no username bound")
			}
			return nil
		})
		checker.RegisterCheck("peer_reachability", func(ctx context.Context) error {
			peers := engine.Store.IPCacheList()
			if len(peers) == 0 {
				return nil
			}
			for username := range peers {
				if engine.PingUsername(username) {
					return nil
				}
			}
			return fmt.Errorf("no known peer out of %d responded to ping", len(peers))
		})

		ctx := context.Background()
		status := checker.GetOverallStatus(ctx)

		propagated := engine.CheckNetTopo()
		fmt.Printf("topology checked against %d peer(s), agent status: %s\n", propagated, status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seekCmd, pingCmd, announceCmd, challengePKCmd, challengeHasPKCmd, pulseCmd, topoCmd)
}
