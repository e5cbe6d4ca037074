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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonhillmtl/pckr/identity"
)

var ipcacheCmd = &cobra.Command{
	Use:   "ipcache",
	Short: "inspect or edit the local address book",
}

var ipcacheAddCmd = &cobra.Command{
	Use:   "add [username] [ip] [port]",
	Short: "record a peer's address directly, bypassing seek",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		port, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("ipcache add: invalid port %q: %w", args[2], err)
		}
		store.IPCacheSet(args[0], identity.Peer{IP: args[1], Port: port})
		return nil
	},
}

var ipcacheRemoveCmd = &cobra.Command{
	Use:   "remove [username]",
	Short: "forget a peer's address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		store.IPCacheRemove(args[0])
		return nil
	},
}

var ipcacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list every peer address on file",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		for username, peer := range store.IPCacheList() {
			fmt.Printf("%s\t%s:%d\n", username, peer.IP, peer.Port)
		}
		return nil
	},
}

func init() {
	ipcacheCmd.AddCommand(ipcacheAddCmd, ipcacheRemoveCmd, ipcacheListCmd)
	rootCmd.AddCommand(ipcacheCmd)
}
