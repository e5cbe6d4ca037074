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
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonhillmtl/pckr/crypto/keys"
	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/identity"
	"github.com/jonhillmtl/pckr/internal/logger"
)

// fakeNetwork routes Send calls directly to the Engine bound at an
// address, skipping real sockets entirely so protocol tests run fast
// and deterministically.
type fakeNetwork struct {
	mu      sync.Mutex
	engines map[string]*Engine
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{engines: map[string]*Engine{}}
}

func (n *fakeNetwork) register(addr string, e *Engine) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.engines[addr] = e
}

func (n *fakeNetwork) send(addr string, f frame.Frame) (frame.Response, error) {
	n.mu.Lock()
	e, ok := n.engines[addr]
	n.mu.Unlock()
	if !ok {
		return frame.Response{}, fmt.Errorf("fakeNetwork: no listener at %s", addr)
	}
	return e.Handle(f), nil
}

// testNode is one simulated participant: its own store, address and
// wired Engine.
type testNode struct {
	Username string
	Addr     string
	RootDir  string
	Store    *identity.FilesystemStore
	Engine   *Engine
}

// buildNetwork creates n participants named node0..nodeN-1, each with
// its own FilesystemStore rooted under t.TempDir(), wired through a
// shared fakeNetwork so every node can reach every other by address.
func buildNetwork(t *testing.T, n int) ([]*testNode, *fakeNetwork) {
	t.Helper()
	net := newFakeNetwork()
	nodes := make([]*testNode, n)

	for i := 0; i < n; i++ {
		username := fmt.Sprintf("node%d", i)
		root := t.TempDir()
		store, err := identity.NewFilesystemStore(root, username)
		require.NoError(t, err)

		ip := "10.0.0.1"
		port := 9000 + i
		addr := fmt.Sprintf("%s:%d", ip, port)

		node := &testNode{Username: username, Addr: addr, RootDir: filepath.Join(root, username), Store: store}
		node.Engine = New(store, ip, port, net.send, logger.NewLogger(nopWriter{}, logger.WarnLevel))
		nodes[i] = node
		net.register(addr, node.Engine)
	}
	return nodes, net
}

// introduce makes a aware of b's address and public key, the
// precondition most protocol operations assume ("a already knows how to
// reach b and has already obtained b's key via the public-key exchange").
func introduce(t *testing.T, a, b *testNode) {
	t.Helper()
	host, portText, err := net.SplitHostPort(b.Addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	a.Store.IPCacheSet(b.Username, identity.Peer{IP: host, Port: port})

	pub, err := keys.EncodePublicKeyPEM(b.Store.KeyPair().PublicKey())
	require.NoError(t, err)
	a.Store.PublicKeySet(b.Username, string(pub))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
