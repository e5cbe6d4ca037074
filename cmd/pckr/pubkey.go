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

	"github.com/jonhillmtl/pckr/identity"
)

var requestPKCmd = &cobra.Command{
	Use:   "request-pk [username]",
	Short: "ask a peer to volunteer their public key to us",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		resp := engine.RequestPublicKey(args[0])
		if !resp.Success {
			return fmt.Errorf("request-pk: %s", resp.Error)
		}
		return nil
	},
}

var autoApprovePKRequests bool

var processPKRequestsCmd = &cobra.Command{
	Use:   "process-pk-requests",
	Short: "answer queued requests for our public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		approve := func(identity.PublicKeyRequest) bool { return autoApprovePKRequests }
		if err := engine.ProcessPublicKeyRequests(approve); err != nil {
			return fmt.Errorf("process-pk-requests: %w", err)
		}
		return nil
	},
}

var processPKResponsesCmd = &cobra.Command{
	Use:   "process-pk-responses",
	Short: "commit queued public key responses to the public-key store",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		if err := engine.ProcessPublicKeyResponses(); err != nil {
			return fmt.Errorf("process-pk-responses: %w", err)
		}
		return nil
	},
}

var publicKeysCmd = &cobra.Command{
	Use:   "public-keys",
	Short: "list usernames we hold a public key for",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		for username := range store.PublicKeyList() {
			fmt.Println(username)
		}
		return nil
	},
}

func init() {
	processPKRequestsCmd.Flags().BoolVar(&autoApprovePKRequests, "approve-all", false, "approve and answer every queued request; without it no request is answered and all stay queued")
	rootCmd.AddCommand(requestPKCmd, processPKRequestsCmd, processPKResponsesCmd, publicKeysCmd)
}
