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
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/identity"
)

// Ping sends a ping frame directly to addr (bypassing address-book
// resolution, since the caller may be probing a just-learned address
// before committing it, as the seek protocol's rollback step does).
func (e *Engine) Ping(addr string) bool {
	resp, err := e.Send(addr, frame.New(frame.ActionPing, nil))
	if err != nil {
		return false
	}
	return resp.Success
}

// PingUsername pings a peer already in the address book.
func (e *Engine) PingUsername(username string) bool {
	resp := e.sendToUsername(username, frame.New(frame.ActionPing, nil))
	return resp.Success
}

func (e *Engine) handlePing(f frame.Frame) frame.Response {
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "pong"})
}

// surfaceHostInfo is the JSON payload symmetric-encrypted inside a
// surface_user frame: just enough for the receiver to identify and
// locate us, mirroring seekResponseHostInfo.
type surfaceHostInfo struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
	U2   string `json:"u2"`
}

// Surface advertises our presence to a peer: "surface_user" from the
// action vocabulary, used to announce (ip, port) without going through
// the seek protocol, e.g. right after startup to already-known peers.
// The peer must already hold our public key, since host_info travels
// RSA/symmetric-wrapped to it exactly as seek_user's does.
func (e *Engine) Surface(username string) frame.Response {
	peerPub, ok := e.peerPublicKey(username)
	if !ok {
		return frame.Fail("", "no public key on file for "+username+", cannot surface")
	}

	selfIP, selfPort := e.selfAddr()
	info := surfaceHostInfo{IP: selfIP, Port: selfPort, U2: e.Store.Username()}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return frame.Fail("", err.Error())
	}

	password := randomPassword()
	passwordEncrypted, err := rsaEncryptHex(password, peerPub)
	if err != nil {
		return frame.Fail("", err.Error())
	}
	hostInfoEncrypted, err := symmetricEncryptHex(infoJSON, password)
	if err != nil {
		return frame.Fail("", err.Error())
	}

	f := frame.New(frame.ActionSurfaceUser, map[string]interface{}{
		"password":  passwordEncrypted,
		"host_info": hostInfoEncrypted,
	})
	return e.sendToUsername(username, f)
}

// handleSurfaceUser mirrors the ground truth's _receive_surface_user:
// the password is RSA-decrypted with our own key, host_info is
// symmetric-decrypted with it, and we refuse to store the announced
// address unless we already hold a public key for the claimed u2 — an
// unauthenticated peer cannot poison our address book for an arbitrary
// username.
func (e *Engine) handleSurfaceUser(f frame.Frame) frame.Response {
	passwordHex, _ := f.Payload["password"].(string)
	hostInfoHex, _ := f.Payload["host_info"].(string)

	password, err := rsaDecryptHex(e.ownKeyPair(), passwordHex)
	if err != nil {
		return frame.Fail(f.FrameID, "decrypt failed")
	}

	infoJSON, err := symmetricDecryptHex(hostInfoHex, password)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt host_info")
	}
	var info surfaceHostInfo
	if err := json.Unmarshal(infoJSON, &info); err != nil {
		return frame.Fail(f.FrameID, "malformed host_info")
	}
	if info.U2 == "" {
		return frame.Fail(f.FrameID, "missing u2")
	}

	if _, ok := e.Store.PublicKeyGet(info.U2); !ok {
		return frame.Fail(f.FrameID, fmt.Sprintf("we don't have a public key for %s, don't care about storing their IP", info.U2))
	}

	e.Store.IPCacheSet(info.U2, identity.Peer{IP: info.IP, Port: info.Port, LastSeen: time.Now()})
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "surfaced"})
}

