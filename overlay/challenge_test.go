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

	"github.com/jonhillmtl/pckr/crypto/keys"
)

func TestChallengeUserPKSucceedsWhenPeerHoldsItsOwnKey(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	introduce(t, alice, bob)

	assert.True(t, alice.Engine.ChallengeUserPK(bob.Username))
}

func TestChallengeUserPKFailsWithNoAddress(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	// Alice knows bob's public key but never learned his address.
	pub, err := keys.EncodePublicKeyPEM(bob.Store.KeyPair().PublicKey())
	require.NoError(t, err)
	alice.Store.PublicKeySet(bob.Username, string(pub))

	assert.False(t, alice.Engine.ChallengeUserPK(bob.Username))
}

func TestChallengeUserHasPKSucceedsWhenTargetHoldsRequesterKey(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	introduce(t, alice, bob) // alice -> bob
	introduce(t, bob, alice) // bob -> alice, so bob holds alice's real key

	assert.True(t, alice.Engine.ChallengeUserHasPK(bob.Username))
}

func TestChallengeUserHasPKFailsWhenTargetDoesNotHoldRequesterKey(t *testing.T) {
	nodes, _ := buildNetwork(t, 2)
	alice, bob := nodes[0], nodes[1]
	introduce(t, alice, bob) // alice -> bob only; bob never learns alice's key

	assert.False(t, alice.Engine.ChallengeUserHasPK(bob.Username))
}
