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
	"github.com/jonhillmtl/pckr/crypto"
	"github.com/jonhillmtl/pckr/identity"
)

// maxCustodyChainLen is the hop limit every custody-chain-carrying
// frame (seek_user, pulse_network, check_net_topo) stops at.
const maxCustodyChainLen = 4

// custodyChainContains reports whether hash already appears in chain.
func custodyChainContains(chain []string, hash string) bool {
	for _, h := range chain {
		if h == hash {
			return true
		}
	}
	return false
}

// appendSelf returns chain with self's username hash appended, never
// mutating the input slice.
func appendSelf(chain []string, selfUsername string) []string {
	extended := make([]string, len(chain), len(chain)+1)
	copy(extended, chain)
	return append(extended, crypto.HashUsername(selfUsername))
}

// forwardTargets returns every address-book peer whose hash is not
// already in chain: the set a custody-chain frame propagates to next.
func forwardTargets(peers map[string]identity.Peer, chain []string) []string {
	var targets []string
	for username := range peers {
		if !custodyChainContains(chain, crypto.HashUsername(username)) {
			targets = append(targets, username)
		}
	}
	return targets
}
