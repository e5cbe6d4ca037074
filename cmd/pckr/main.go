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
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonhillmtl/pckr/config"
	"github.com/jonhillmtl/pckr/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pckr",
	Short: "pckr - a peer-to-peer end-to-end encrypted messaging overlay",
	Long: `pckr operates one identity's corner of the overlay: it surfaces
your presence, seeks and challenges peers, exchanges public keys, and
sends chunked end-to-end encrypted messages, all addressed by username
rather than network location.`,
}

// cfg is loaded once in main(), before any subcommand runs, and read by
// context.go/surface.go as the fallback layer beneath explicit flags and
// PCKR_* environment variables: flag > env > cfg > hardcoded default.
var cfg *config.Config

func main() {
	// A missing .env is not an error; PCKR_USERNAME may already be set
	// in the environment directly.
	_ = godotenv.Load()

	loaded, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	if cfg.Logging != nil {
		applyLoggingConfig(cfg.Logging)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyLoggingConfig retunes the package default logger to match a
// loaded Config, so a config file's logging section governs the same
// logger every command already logs through rather than introducing a
// second logging path.
func applyLoggingConfig(lc *config.LoggingConfig) {
	l := logger.GetDefaultLogger()
	switch lc.Level {
	case "debug":
		l.SetLevel(logger.DebugLevel)
	case "info":
		l.SetLevel(logger.InfoLevel)
	case "warn":
		l.SetLevel(logger.WarnLevel)
	case "error":
		l.SetLevel(logger.ErrorLevel)
	}
	l.SetPrettyPrint(lc.Format == "pretty")
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("home", "", "identity store root directory (default: $PCKR_HOME or ~/.pckr)")
	rootCmd.PersistentFlags().String("username", "", "identity to operate as (default: $PCKR_USERNAME)")
	rootCmd.PersistentFlags().String("ip", "127.0.0.1", "this identity's advertised reachable IP")
	rootCmd.PersistentFlags().Int("port", 8000, "this identity's advertised reachable port")

	// Subcommands register themselves in their own files:
	// identity.go: initCmd
	// surface.go: surfaceCmd
	// peer.go: seekCmd, pingCmd, announceCmd, challengePKCmd, challengeHasPKCmd, pulseCmd, topoCmd
	// pubkey.go: requestPKCmd, processPKRequestsCmd, processPKResponsesCmd, publicKeysCmd
	// ipcache.go: ipcacheCmd (add/remove/list)
	// message.go: sendCmd, messagesCmd
	// metricsserver.go: metricsCmd
}
