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
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonhillmtl/pckr/identity"
	"github.com/jonhillmtl/pckr/internal/logger"
	"github.com/jonhillmtl/pckr/overlay"
)

// resolveUsername reads --username, falling back to PCKR_USERNAME. The
// identity store's root is configurable (flag, env, config file); which
// identity under that root a command operates on is not a config field,
// per config/loader.go's applyEnvironmentOverrides.
func resolveUsername(cmd *cobra.Command) (string, error) {
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		username = os.Getenv("PCKR_USERNAME")
	}
	if username == "" {
		return "", fmt.Errorf("no identity given: pass --username or set PCKR_USERNAME")
	}
	return username, nil
}

// resolveHome reads --home, falling back to PCKR_HOME, falling back to
// cfg.Identity.RootDir (loaded once in main from a config file or its
// built-in defaults), falling back to ~/.pckr.
func resolveHome(cmd *cobra.Command) (string, error) {
	home, _ := cmd.Flags().GetString("home")
	if home == "" {
		home = os.Getenv("PCKR_HOME")
	}
	if home == "" && cfg != nil && cfg.Identity != nil && cfg.Identity.RootDir != "" && cfg.Identity.RootDir != "~/.pckr" {
		home = cfg.Identity.RootDir
	}
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve default home: %w", err)
		}
		home = dir + "/.pckr"
	}
	if strings.HasPrefix(home, "~/") {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		home = dir + home[1:]
	}
	return home, nil
}

// openStore opens (or initializes) the identity store named by
// --username under --home.
func openStore(cmd *cobra.Command) (*identity.FilesystemStore, error) {
	username, err := resolveUsername(cmd)
	if err != nil {
		return nil, err
	}
	home, err := resolveHome(cmd)
	if err != nil {
		return nil, err
	}
	return identity.NewFilesystemStore(home, username)
}

// resolveIPPort reads --ip/--port, falling back to cfg.Surface's values
// when the flag was never explicitly passed and a config file set a
// non-default value for it.
func resolveIPPort(cmd *cobra.Command) (string, int) {
	ip, _ := cmd.Flags().GetString("ip")
	port, _ := cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("ip") && cfg != nil && cfg.Surface != nil && cfg.Surface.Host != "" && cfg.Surface.Host != "0.0.0.0" {
		ip = cfg.Surface.Host
	}
	if !cmd.Flags().Changed("port") && cfg != nil && cfg.Surface != nil && cfg.Surface.Port != 0 {
		port = cfg.Surface.Port
	}
	return ip, port
}

// openEngine opens the identity store and wires an Engine advertising
// --ip/--port (or their config-file fallback), sending over real TCP via
// transport.Send.
func openEngine(cmd *cobra.Command) (*overlay.Engine, error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	ip, port := resolveIPPort(cmd)
	engine := overlay.New(store, ip, port, nil, logger.GetDefaultLogger())
	if cfg != nil && cfg.Messaging != nil && cfg.Messaging.ChunkSize > 0 {
		engine.ChunkSize = cfg.Messaging.ChunkSize
	}
	if cfg != nil && cfg.Maintenance != nil {
		engine.MaintenanceMinInterval = cfg.Maintenance.MinInterval
		engine.MaintenanceMaxInterval = cfg.Maintenance.MaxInterval
	}
	return engine, nil
}
