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
	"time"

	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/internal/metrics"
)

// ChallengeUserPK asserts that peer holds the private key matching the
// public key we have on file for it.
func (e *Engine) ChallengeUserPK(peerUsername string) bool {
	start := time.Now()
	success := e.challengeUserPK(peerUsername)
	metrics.ChallengeDuration.WithLabelValues(string(frame.ActionChallengeUserPK)).Observe(time.Since(start).Seconds())
	recordChallengeOutcome(frame.ActionChallengeUserPK, success)
	return success
}

func (e *Engine) challengeUserPK(peerUsername string) bool {
	pub, ok := e.peerPublicKey(peerUsername)
	if !ok {
		return false
	}

	challenge := randomChallengeText()
	ciphertext, err := rsaEncryptHex([]byte(challenge), pub)
	if err != nil {
		return false
	}

	f := frame.New(frame.ActionChallengeUserPK, map[string]interface{}{"challenge": ciphertext})
	resp := e.sendToUsername(peerUsername, f)
	if !resp.Success {
		return false
	}
	decrypted, _ := resp.Fields["decrypted_challenge"].(string)
	return decrypted == challenge
}

func (e *Engine) handleChallengeUserPK(f frame.Frame) frame.Response {
	ciphertext, _ := f.Payload["challenge"].(string)
	plaintext, err := rsaDecryptHex(e.ownKeyPair(), ciphertext)
	if err != nil {
		return frame.Fail(f.FrameID, "decrypt failed")
	}
	return frame.Ok(f.FrameID, map[string]interface{}{"decrypted_challenge": string(plaintext)})
}

// ChallengeUserHasPK asserts that peer holds OUR public key.
func (e *Engine) ChallengeUserHasPK(peerUsername string) bool {
	start := time.Now()
	success := e.challengeUserHasPK(peerUsername)
	metrics.ChallengeDuration.WithLabelValues(string(frame.ActionChallengeUserHasPK)).Observe(time.Since(start).Seconds())
	recordChallengeOutcome(frame.ActionChallengeUserHasPK, success)
	return success
}

func (e *Engine) challengeUserHasPK(peerUsername string) bool {
	challenge := randomChallengeText()
	f := frame.New(frame.ActionChallengeUserHasPK, map[string]interface{}{
		"u2":             e.Store.Username(),
		"challenge_text": challenge,
	})
	resp := e.sendToUsername(peerUsername, f)
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

func (e *Engine) handleChallengeUserHasPK(f frame.Frame) frame.Response {
	u2, _ := f.Payload["u2"].(string)
	challengeText, _ := f.Payload["challenge_text"].(string)

	pub, ok := e.peerPublicKey(u2)
	if !ok {
		return frame.Fail(f.FrameID, "no public key on file for "+u2)
	}

	encrypted, err := rsaEncryptHex([]byte(challengeText), pub)
	if err != nil {
		return frame.Fail(f.FrameID, "encrypt failed")
	}
	return frame.Ok(f.FrameID, map[string]interface{}{"encrypted_challenge": encrypted})
}

func recordChallengeOutcome(action frame.Action, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	metrics.ChallengesIssued.WithLabelValues(string(action)).Inc()
	metrics.ChallengesCompleted.WithLabelValues(string(action), status).Inc()
}
