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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSeekUserThroughOneRelayResolvesAddress exercises the linear chain
// alice -> relay -> target: alice does not know target's address, only
// its public key and a route to relay, which in turn can reach target.
func TestSeekUserThroughOneRelayResolvesAddress(t *testing.T) {
	nodes, _ := buildNetwork(t, 3)
	alice, relay, target := nodes[0], nodes[1], nodes[2]

	introduce(t, alice, relay)
	introduce(t, relay, target)
	introduce(t, alice, target) // alice must already hold target's public key to seek it
	introduce(t, target, alice) // target must hold alice's real key for challenge_user_has_pk to pass

	// Alice does not yet know target's address; remove any ipcache entry.
	alice.Store.IPCacheRemove(target.Username)

	propagated, err := alice.Engine.SeekUser(target.Username)
	require.NoError(t, err)
	assert.Equal(t, 1, propagated)

	_, found := alice.Store.IPCacheGet(target.Username)
	assert.True(t, found, "alice should have learned target's address via seek_user_response")
}

func TestSeekUserRequiresKnownPublicKey(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]

	_, err := alice.Engine.SeekUser(bob.Username)
	assert.Error(t, err)
}

// TestSeekTokenAcceptsRepeatedSeekUserResponse checks that a second
// seek_user_response for the same target is accepted after a first one
// has already resolved it. Each SeekUser call mints its own token; reuse
// of a single token is covered by identity's TestSeekTokenIsNotSingleUse.
func TestSeekTokenAcceptsRepeatedSeekUserResponse(t *testing.T) {
	nodes, _ := buildNetwork(t, 3)
	alice, relay, target := nodes[0], nodes[1], nodes[2]

	introduce(t, alice, relay)
	introduce(t, relay, target)
	introduce(t, alice, target)
	introduce(t, target, alice)
	alice.Store.IPCacheRemove(target.Username)

	_, err := alice.Engine.SeekUser(target.Username)
	require.NoError(t, err)
	_, found := alice.Store.IPCacheGet(target.Username)
	require.True(t, found)

	// A second, independently minted seek cycle for the same target
	// must succeed exactly the same way: the first cycle left the token
	// store able to issue and match another.
	alice.Store.IPCacheRemove(target.Username)
	_, err = alice.Engine.SeekUser(target.Username)
	require.NoError(t, err)
	_, found = alice.Store.IPCacheGet(target.Username)
	assert.True(t, found)
}

// TestSeekUserStopsAtCustodyChainLimit confirms propagation halts once
// the custody chain reaches its hop limit, rather than flooding forever.
func TestSeekUserStopsAtCustodyChainLimit(t *testing.T) {
	nodes, _ := buildNetwork(t, 6)
	alice := nodes[0]
	chain := nodes[1:]

	// Wire a line: alice -> chain[0] -> chain[1] -> ... -> chain[4]
	for i := 0; i < len(chain)-1; i++ {
		introduce(t, chain[i], chain[i+1])
	}
	introduce(t, alice, chain[0])

	target := chain[len(chain)-1]
	introduce(t, alice, target)
	introduce(t, target, alice)
	alice.Store.IPCacheRemove(target.Username)

	_, err := alice.Engine.SeekUser(target.Username)
	require.NoError(t, err)

	// With a 4-hop limit and 4 intermediate relays in a line, the last
	// hop's forward should be suppressed before reaching target, so
	// alice never resolves target's address through this chain alone.
	_, found := alice.Store.IPCacheGet(target.Username)
	assert.False(t, found)
}

// TestSeekUserAdvertisesPersistedAddressOverInMemoryDefault proves
// selfAddr prefers a SaveCurrentIPPort'd address: once target's store
// has a persisted bind address that differs from Engine.SelfIP/SelfPort,
// that's what alice.SeekUser learns back, through relay, via
// seek_user_response.
func TestSeekUserAdvertisesPersistedAddressOverInMemoryDefault(t *testing.T) {
	nodes, _ := buildNetwork(t, 3)
	alice, relay, target := nodes[0], nodes[1], nodes[2]

	introduce(t, alice, relay)
	introduce(t, relay, target)
	introduce(t, alice, target)
	introduce(t, target, alice)
	alice.Store.IPCacheRemove(target.Username)

	require.NoError(t, target.Store.SaveCurrentIPPort("10.0.0.99", 9999))

	_, err := alice.Engine.SeekUser(target.Username)
	require.NoError(t, err)

	peer, found := alice.Store.IPCacheGet(target.Username)
	require.True(t, found)
	assert.Equal(t, "10.0.0.99", peer.IP)
	assert.Equal(t, 9999, peer.Port)
}
