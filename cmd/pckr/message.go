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
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var sendMimeType string

var sendCmd = &cobra.Command{
	Use:   "send [username] [file]",
	Short: "send a file to a peer as a chunked end-to-end encrypted message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}

		mimeType := sendMimeType
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(args[1]))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}
		}

		if err := engine.SendMessage(args[0], filepath.Base(args[1]), mimeType, content); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		return nil
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "list received messages by message ID and filename",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := resolveHome(cmd)
		if err != nil {
			return err
		}
		username, err := resolveUsername(cmd)
		if err != nil {
			return err
		}

		messagesRoot := filepath.Join(home, username, "messages")
		messageDirs, err := os.ReadDir(messagesRoot)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("messages: %w", err)
		}

		for _, messageDir := range messageDirs {
			if !messageDir.IsDir() {
				continue
			}
			files, err := os.ReadDir(filepath.Join(messagesRoot, messageDir.Name()))
			if err != nil {
				return fmt.Errorf("messages: %w", err)
			}
			for _, f := range files {
				fmt.Printf("%s\t%s\n", messageDir.Name(), f.Name())
			}
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendMimeType, "mime-type", "", "override the detected mime type")
	rootCmd.AddCommand(sendCmd, messagesCmd)
}
