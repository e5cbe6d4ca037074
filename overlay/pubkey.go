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
	"time"

	"github.com/jonhillmtl/pckr/crypto/keys"
	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/identity"
)

// RequestPublicKey asks peerUsername to volunteer its public key to us,
// carrying our PEM so the responder can wrap its reply to us.
func (e *Engine) RequestPublicKey(peerUsername string) frame.Response {
	ownPub, err := keys.EncodePublicKeyPEM(e.ownKeyPair().PublicKey())
	if err != nil {
		return frame.Fail("", err.Error())
	}
	f := frame.New(frame.ActionRequestPublicKey, map[string]interface{}{
		"u2":         e.Store.Username(),
		"public_key": string(ownPub),
	})
	return e.sendToUsername(peerUsername, f)
}

func (e *Engine) handleRequestPublicKey(f frame.Frame) frame.Response {
	u2, _ := f.Payload["u2"].(string)
	publicKey, _ := f.Payload["public_key"].(string)
	if u2 == "" || publicKey == "" {
		return frame.Fail(f.FrameID, "missing u2 or public_key")
	}

	e.Store.StorePublicKeyRequest(identity.PublicKeyRequest{
		FromUsername: u2,
		PublicKeyPEM: publicKey,
		ReceivedAt:   time.Now(),
	})
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "request queued"})
}

// ProcessPublicKeyRequests enumerates queued request_public_key entries
// and, for each one approve accepts, symmetric-wraps our own PEM with a
// fresh password, RSA-wraps the password to the requester's volunteered
// key, and sends public_key_response.
func (e *Engine) ProcessPublicKeyRequests(approve func(identity.PublicKeyRequest) bool) error {
	ownPub, err := keys.EncodePublicKeyPEM(e.ownKeyPair().PublicKey())
	if err != nil {
		return err
	}

	for _, req := range e.Store.EnumeratePublicKeyRequests() {
		if approve != nil && !approve(req) {
			continue
		}

		requesterPub, err := decodePublicKeyPEM(req.PublicKeyPEM)
		if err != nil {
			e.Store.RemovePublicKeyRequest(req.FromUsername)
			continue
		}

		password := randomPassword()
		passwordEncrypted, err := rsaEncryptHex(password, requesterPub)
		if err != nil {
			return err
		}
		pemEncrypted, err := symmetricEncryptHex(ownPub, password)
		if err != nil {
			return err
		}

		resp := frame.New(frame.ActionPublicKeyResponse, map[string]interface{}{
			"u2":         e.Store.Username(),
			"password":   passwordEncrypted,
			"public_key": pemEncrypted,
		})
		if r := e.sendToUsername(req.FromUsername, resp); !r.Success {
			return fmt.Errorf("overlay: public_key_response to %s rejected: %s", req.FromUsername, r.Error)
		}
		e.Store.RemovePublicKeyRequest(req.FromUsername)
	}
	return nil
}

func (e *Engine) handlePublicKeyResponse(f frame.Frame) frame.Response {
	u2, _ := f.Payload["u2"].(string)
	password, _ := f.Payload["password"].(string)
	publicKey, _ := f.Payload["public_key"].(string)
	if u2 == "" {
		return frame.Fail(f.FrameID, "missing u2")
	}

	e.Store.StorePublicKeyResponse(identity.PublicKeyResponse{
		FromUsername:       u2,
		EncryptedPassword:  password,
		EncryptedPublicKey: publicKey,
		ReceivedAt:         time.Now(),
	})
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "response queued"})
}

// ProcessPublicKeyResponses unwraps every queued public_key_response,
// committing the decrypted PEM to the public-key store.
//
// This auto-trusts the decrypted PEM under the responder's claimed
// username without a subsequent challenge_user_pk; callers that want
// the stricter behavior should run ChallengeUserPK against the
// responder immediately afterward before relying on the key.
func (e *Engine) ProcessPublicKeyResponses() error {
	for _, resp := range e.Store.EnumeratePublicKeyResponses() {
		password, err := rsaDecryptHex(e.ownKeyPair(), resp.EncryptedPassword)
		if err != nil {
			e.Store.RemovePublicKeyResponse(resp.FromUsername)
			continue
		}
		pem, err := symmetricDecryptHex(resp.EncryptedPublicKey, password)
		if err != nil {
			e.Store.RemovePublicKeyResponse(resp.FromUsername)
			continue
		}
		e.Store.PublicKeySet(resp.FromUsername, string(pem))
		e.Store.RemovePublicKeyResponse(resp.FromUsername)
	}
	return nil
}
