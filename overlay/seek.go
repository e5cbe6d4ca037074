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
	"strings"
	"time"

	"github.com/jonhillmtl/pckr/crypto"
	"github.com/jonhillmtl/pckr/crypto/keys"
	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/identity"
	"github.com/jonhillmtl/pckr/internal/logger"
	"github.com/jonhillmtl/pckr/internal/metrics"
)

// hostInfo is the JSON payload symmetric-encrypted inside a seek_user
// frame: the initiator's reachable coordinates and credentials.
type hostInfo struct {
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	PublicKey string `json:"public_key"`
	U2        string `json:"u2"`
	SeekToken string `json:"seek_token"`
}

// seekResponseHostInfo is the smaller host_info the target echoes back:
// just its own coordinates, no public key (the initiator already has it).
type seekResponseHostInfo struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
	U2   string `json:"u2"`
}

// SeekUser initiates discovery of target's current address: mints a
// seek token, wraps our host_info, and floods it to every known peer.
func (e *Engine) SeekUser(target string) (propagatedTo int, err error) {
	targetPub, ok := e.peerPublicKey(target)
	if !ok {
		return 0, fmt.Errorf("overlay: no public key on file for %s, cannot seek", target)
	}

	token := newSeekToken()
	e.Store.SeekTokenAdd(target, token)
	metrics.SeeksInitiated.Inc()

	ownPub, err := keys.EncodePublicKeyPEM(e.ownKeyPair().PublicKey())
	if err != nil {
		return 0, err
	}

	selfIP, selfPort := e.selfAddr()
	info := hostInfo{
		IP:        selfIP,
		Port:      selfPort,
		PublicKey: string(ownPub),
		U2:        e.Store.Username(),
		SeekToken: token,
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return 0, err
	}

	password := randomPassword()
	passwordEncrypted, err := rsaEncryptHex(password, targetPub)
	if err != nil {
		return 0, err
	}
	hostInfoEncrypted, err := symmetricEncryptHex(infoJSON, password)
	if err != nil {
		return 0, err
	}

	chain := []string{crypto.HashUsername(e.Store.Username())}
	peers := e.Store.IPCacheList()
	count := 0
	for peerUsername := range peers {
		f := frame.New(frame.ActionSeekUser, map[string]interface{}{
			"password":      passwordEncrypted,
			"host_info":     hostInfoEncrypted,
			"custody_chain": chain,
		})
		e.sendToUsername(peerUsername, f)
		count++
	}
	return count, nil
}

func (e *Engine) handleSeekUser(f frame.Frame) frame.Response {
	passwordHex, _ := f.Payload["password"].(string)
	hostInfoHex, _ := f.Payload["host_info"].(string)
	chain := stringSliceField(f.Payload["custody_chain"])

	password, err := rsaDecryptHex(e.ownKeyPair(), passwordHex)
	if err != nil {
		// Not addressed to us: decrypt failure is the propagation signal,
		// never a reported error.
		return e.forwardSeek(f, chain, passwordHex, hostInfoHex)
	}

	infoJSON, err := symmetricDecryptHex(hostInfoHex, password)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt host_info")
	}
	var info hostInfo
	if err := json.Unmarshal(infoJSON, &info); err != nil {
		return frame.Fail(f.FrameID, "malformed host_info")
	}

	previous, hadPrevious := e.Store.IPCacheGet(info.U2)
	e.Store.IPCacheSet(info.U2, identity.Peer{IP: info.IP, Port: info.Port, LastSeen: time.Now()})

	rollback := func() {
		if hadPrevious {
			e.Store.IPCacheSet(info.U2, previous)
		} else {
			e.Store.IPCacheRemove(info.U2)
		}
	}

	if !e.Ping(fmt.Sprintf("%s:%d", info.IP, info.Port)) {
		rollback()
		return frame.Fail(f.FrameID, "that was us, but the asking user is unreachable")
	}

	if !e.challengeUserHasPKAgainst(info.U2, info.PublicKey) {
		rollback()
		return frame.Fail(f.FrameID, "challenge failed")
	}

	if err := e.respondToSeek(info); err != nil {
		e.Log.Warn("failed to send seek_user_response", logger.Username(info.U2), logger.Error(err))
	}

	// Re-confirm the address-book entry (it already holds the new value;
	// this is the "finalize" half of the rollback-on-failure design).
	e.Store.IPCacheSet(info.U2, identity.Peer{IP: info.IP, Port: info.Port, LastSeen: time.Now()})

	return frame.Ok(f.FrameID, map[string]interface{}{"message": "that was me, host_info processed"})
}

// challengeUserHasPKAgainst runs challenge_user_has_pk against the seek
// initiator: confirms it holds OUR public key, proving host_info was
// genuinely addressed using our real key rather than a stale or forged
// one. The initiator's own PEM from host_info only identifies who we're
// talking to; the initiator must already hold our key for this to pass.
func (e *Engine) challengeUserHasPKAgainst(initiatorUsername string, initiatorPubPEM string) bool {
	challenge := randomChallengeText()
	f := frame.New(frame.ActionChallengeUserHasPK, map[string]interface{}{
		"u2":             e.Store.Username(),
		"challenge_text": challenge,
	})
	resp := e.sendToUsername(initiatorUsername, f)
	if !resp.Success {
		return false
	}
	encrypted, _ := resp.Fields["encrypted_challenge"].(string)
	decrypted, err := rsaDecryptHex(e.ownKeyPair(), encrypted)
	if err != nil {
		return false
	}
	return string(decrypted) == challenge
}

func (e *Engine) respondToSeek(info hostInfo) error {
	initiatorPub, err := decodePublicKeyPEM(info.PublicKey)
	if err != nil {
		return err
	}

	password := randomPassword()
	passwordEncrypted, err := rsaEncryptHex(password, initiatorPub)
	if err != nil {
		return err
	}

	selfIP, selfPort := e.selfAddr()
	respInfo := seekResponseHostInfo{IP: selfIP, Port: selfPort, U2: e.Store.Username()}
	respInfoJSON, err := json.Marshal(respInfo)
	if err != nil {
		return err
	}
	hostInfoEncrypted, err := symmetricEncryptHex(respInfoJSON, password)
	if err != nil {
		return err
	}
	tokenEncrypted, err := symmetricEncryptHex([]byte(info.SeekToken), password)
	if err != nil {
		return err
	}

	f := frame.New(frame.ActionSeekUserResponse, map[string]interface{}{
		"password":   passwordEncrypted,
		"host_info":  hostInfoEncrypted,
		"seek_token": tokenEncrypted,
	})
	resp := e.sendToUsername(info.U2, f)
	if !resp.Success {
		return fmt.Errorf("seek_user_response rejected: %s", resp.Error)
	}
	return nil
}

func (e *Engine) forwardSeek(f frame.Frame, chain []string, passwordHex, hostInfoHex string) frame.Response {
	if len(chain) >= maxCustodyChainLen {
		metrics.SeeksDroppedCustodyLimit.Inc()
		return frame.Ok(f.FrameID, map[string]interface{}{"message": "custody_chain len exceeded"})
	}

	extended := appendSelf(chain, e.Store.Username())
	targets := forwardTargets(e.Store.IPCacheList(), chain)

	count := 0
	for _, peerUsername := range targets {
		fwd := frame.New(frame.ActionSeekUser, map[string]interface{}{
			"password":      passwordHex,
			"host_info":     hostInfoHex,
			"custody_chain": extended,
		})
		e.sendToUsername(peerUsername, fwd)
		count++
	}
	metrics.SeeksPropagated.Observe(float64(count))

	return frame.Ok(f.FrameID, map[string]interface{}{"message": fmt.Sprintf("propagated to %d", count)})
}

func (e *Engine) handleSeekUserResponse(f frame.Frame) frame.Response {
	passwordHex, _ := f.Payload["password"].(string)
	hostInfoHex, _ := f.Payload["host_info"].(string)
	seekTokenHex, _ := f.Payload["seek_token"].(string)

	password, err := rsaDecryptHex(e.ownKeyPair(), passwordHex)
	if err != nil {
		return frame.Fail(f.FrameID, "decrypt failed")
	}

	infoJSON, err := symmetricDecryptHex(hostInfoHex, password)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt host_info")
	}
	var info seekResponseHostInfo
	if err := json.Unmarshal(infoJSON, &info); err != nil {
		return frame.Fail(f.FrameID, "malformed host_info")
	}

	tokenBytes, err := symmetricDecryptHex(seekTokenHex, password)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt seek_token")
	}
	token := strings.TrimSpace(string(tokenBytes))

	if !e.Store.SeekTokenContains(info.U2, token) {
		metrics.SeekTokenMatches.WithLabelValues("not_found").Inc()
		return frame.Fail(f.FrameID, "seek_token not found")
	}
	metrics.SeekTokenMatches.WithLabelValues("matched").Inc()

	e.Store.IPCacheSet(info.U2, identity.Peer{IP: info.IP, Port: info.Port, LastSeen: time.Now()})
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "address updated"})
}

func stringSliceField(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
