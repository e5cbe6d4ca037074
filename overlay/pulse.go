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

	"github.com/jonhillmtl/pckr/crypto"
	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/internal/logger"
)

// PulseNetwork sends a payload-less reachability tracer to every known
// peer, returning how many peers it sent the tracer to directly (whether
// or not each send succeeded).
func (e *Engine) PulseNetwork() int {
	chain := []string{crypto.HashUsername(e.Store.Username())}
	count := 0
	for peerUsername := range e.Store.IPCacheList() {
		f := frame.New(frame.ActionPulseNetwork, map[string]interface{}{"custody_chain": chain})
		e.sendToUsername(peerUsername, f)
		count++
	}
	return count
}

func (e *Engine) handlePulseNetwork(f frame.Frame) frame.Response {
	chain := stringSliceField(f.Payload["custody_chain"])
	if len(chain) >= maxCustodyChainLen {
		return frame.Ok(f.FrameID, map[string]interface{}{"message": "custody_chain len exceeded"})
	}

	extended := appendSelf(chain, e.Store.Username())
	targets := forwardTargets(e.Store.IPCacheList(), chain)
	for _, peerUsername := range targets {
		fwd := frame.New(frame.ActionPulseNetwork, map[string]interface{}{"custody_chain": extended})
		e.sendToUsername(peerUsername, fwd)
	}
	return frame.Ok(f.FrameID, map[string]interface{}{"message": fmt.Sprintf("propagated to %d", len(targets))})
}

// CheckNetTopo sends our view of the network (a hash of every known
// peer's address) for the receiver to cross-check against its own.
func (e *Engine) CheckNetTopo() int {
	hashed := map[string]string{}
	for username, peer := range e.Store.IPCacheList() {
		hashed[crypto.HashUsername(username)] = crypto.HashUsername(fmt.Sprintf("%s:%d", peer.IP, peer.Port))
	}

	chain := []string{crypto.HashUsername(e.Store.Username())}
	count := 0
	for peerUsername := range e.Store.IPCacheList() {
		f := frame.New(frame.ActionCheckNetTopo, map[string]interface{}{
			"custody_chain":   chain,
			"hashed_ipcaches": hashed,
		})
		e.sendToUsername(peerUsername, f)
		count++
	}
	return count
}

func (e *Engine) handleCheckNetTopo(f frame.Frame) frame.Response {
	chain := stringSliceField(f.Payload["custody_chain"])
	hashed := stringMapField(f.Payload["hashed_ipcaches"])

	for username, peer := range e.Store.IPCacheList() {
		theirHash, ok := hashed[crypto.HashUsername(username)]
		if !ok {
			continue
		}
		ourHash := crypto.HashUsername(fmt.Sprintf("%s:%d", peer.IP, peer.Port))
		if theirHash != ourHash {
			f := frame.New(frame.ActionNetTopoDamaged, map[string]interface{}{"u2": username})
			e.sendToUsername(username, f)
		}
	}

	if len(chain) >= maxCustodyChainLen {
		return frame.Ok(f.FrameID, map[string]interface{}{"message": "custody_chain len exceeded"})
	}
	extended := appendSelf(chain, e.Store.Username())
	targets := forwardTargets(e.Store.IPCacheList(), chain)
	for _, peerUsername := range targets {
		fwd := frame.New(frame.ActionCheckNetTopo, map[string]interface{}{
			"custody_chain":   extended,
			"hashed_ipcaches": hashed,
		})
		e.sendToUsername(peerUsername, fwd)
	}
	return frame.Ok(f.FrameID, map[string]interface{}{"message": fmt.Sprintf("propagated to %d", len(targets))})
}

// handleNetTopoDamaged evicts the named peer and re-seeks it if we hold
// its public key, the principled interpretation of flush_inconsistent_user.
func (e *Engine) handleNetTopoDamaged(f frame.Frame) frame.Response {
	u2, _ := f.Payload["u2"].(string)
	if u2 == "" {
		return frame.Fail(f.FrameID, "missing u2")
	}

	e.Store.IPCacheRemove(u2)
	if _, ok := e.Store.PublicKeyGet(u2); ok {
		if _, err := e.SeekUser(u2); err != nil {
			e.Log.Warn("re-seek after net_topo_damaged failed", logger.Username(u2), logger.Error(err))
		}
	}
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "evicted and re-seeked"})
}

func stringMapField(v interface{}) map[string]string {
	raw, ok := v.(map[string]interface{})
	if !ok {
		if m, ok := v.(map[string]string); ok {
			return m
		}
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
