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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageTextRoundTripAcrossMultipleChunks(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	introduce(t, alice, bob)

	// No spaces in the body: per-chunk space-padding is ambiguous with
	// genuine trailing spaces in the content (the documented legacy
	// limitation), so a content alphabet without spaces gives an exact
	// round trip regardless of where chunk boundaries fall.
	content := []byte(strings.Repeat("thequickbrownfoxjumpsoverthelazydog", 300)) // > one chunk
	require.Greater(t, len(content), defaultChunkSize)

	err := alice.Engine.SendMessage(bob.Username, "fox.txt", "text/plain", content)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(bobMessagesDir(t, bob), "fox.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestSendMessageFailsWithoutPeerPublicKey(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	// Alice was never introduced to bob, so she holds no public key for him.

	err := alice.Engine.SendMessage(bob.Username, "x.txt", "text/plain", []byte("hi"))
	assert.Error(t, err)
}

func TestSendMessageBinaryDisposition(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	introduce(t, alice, bob)

	content := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x20, 0xff, 0x10}
	err := alice.Engine.SendMessage(bob.Username, "pic.png", "image/png", content)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(bobMessagesDir(t, bob), "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func bobMessagesDir(t *testing.T, node *testNode) string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(node.RootDir, "messages"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return filepath.Join(node.RootDir, "messages", entries[0].Name())
}
