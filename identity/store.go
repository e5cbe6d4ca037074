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

// Package identity defines the per-user Identity Store capability the
// overlay core consumes: the keypair, address book (ipcache), known
// peer public keys, public-key request/response queues, seek tokens and
// in-flight message staging. The core never touches a filesystem path
// directly — every component that needs persisted state is handed a
// Store.
package identity

import (
	"errors"
	"time"

	"github.com/jonhillmtl/pckr/crypto"
)

// Peer is one address-book entry: a username's last-known reachable
// coordinates.
type Peer struct {
	IP       string    `json:"ip"`
	Port     int       `json:"port"`
	LastSeen time.Time `json:"last_seen"`
}

// PublicKeyRequest is a queued request_public_key frame: a candidate
// public key "volunteered" by from_username, pending approval.
type PublicKeyRequest struct {
	FromUsername string    `json:"from_username"`
	PublicKeyPEM string    `json:"public_key_pem"`
	ReceivedAt   time.Time `json:"received_at"`
}

// PublicKeyResponse is a queued, not-yet-processed public_key_response
// frame: still RSA/symmetric wrapped until a "process responses" pass
// unwraps and commits it to the public-key store.
type PublicKeyResponse struct {
	FromUsername       string    `json:"from_username"`
	EncryptedPassword  string    `json:"encrypted_password"`
	EncryptedPublicKey string    `json:"encrypted_public_key"`
	ReceivedAt         time.Time `json:"received_at"`
}

// MessageKey is the decrypted key.json a send_message_key frame
// delivers before any chunk of the message it describes.
type MessageKey struct {
	Password string `json:"password"`
	MessageID string `json:"message_id"`
	Filename  string `json:"filename"`
	Length    int    `json:"length"`
	MD5       string `json:"md5"`
}

// Errors common to Store implementations.
var (
	ErrPeerNotFound       = errors.New("identity: peer not found")
	ErrPublicKeyNotFound  = errors.New("identity: public key not found")
	ErrMessageKeyNotFound = errors.New("identity: message key not found")
	ErrChunkBeforeKey     = errors.New("identity: chunk received before key")
	ErrCurrentIPPortUnset = errors.New("identity: current_ip_port.json not written yet")
)

// Store is the capability object every overlay component depends on
// instead of touching a filesystem path directly (§9's "Ambient
// per-user directory access" re-architecture).
type Store interface {
	// Username returns the identity's own username.
	Username() string

	// KeyPair returns the identity's own RSA key pair.
	KeyPair() crypto.KeyPair

	// IPCacheGet looks up a peer's last-known address.
	IPCacheGet(username string) (Peer, bool)
	// IPCacheSet records or replaces a peer's address. At most one
	// entry per username; eviction replaces rather than appends.
	IPCacheSet(username string, peer Peer)
	// IPCacheRemove evicts a peer's address-book entry.
	IPCacheRemove(username string)
	// IPCacheList returns a snapshot of every known peer address.
	IPCacheList() map[string]Peer

	// PublicKeyGet looks up a known peer's public key PEM.
	PublicKeyGet(username string) (string, bool)
	// PublicKeySet stores a peer's public key PEM. Called only after a
	// successful public-key response flow (§4.3) — never directly from
	// an inbound request_public_key frame.
	PublicKeySet(username string, pemText string)
	// PublicKeyList returns a snapshot of every known peer public key.
	PublicKeyList() map[string]string

	// StorePublicKeyRequest files (or idempotently replaces) the queued
	// request_public_key for from_username.
	StorePublicKeyRequest(req PublicKeyRequest)
	// EnumeratePublicKeyRequests lists queued, unprocessed requests.
	EnumeratePublicKeyRequests() []PublicKeyRequest
	// RemovePublicKeyRequest removes a processed request.
	RemovePublicKeyRequest(fromUsername string)

	// StorePublicKeyResponse files (or idempotently replaces) the
	// queued public_key_response from from_username.
	StorePublicKeyResponse(resp PublicKeyResponse)
	// EnumeratePublicKeyResponses lists queued, unprocessed responses.
	EnumeratePublicKeyResponses() []PublicKeyResponse
	// RemovePublicKeyResponse removes a processed response.
	RemovePublicKeyResponse(fromUsername string)

	// SeekTokenAdd records a freshly minted seek_token for username.
	SeekTokenAdd(username string, token string)
	// SeekTokenContains reports whether token is among those issued for
	// username (trimmed-string match, not single-use — §4.5, §9).
	SeekTokenContains(username string, token string) bool

	// MessageKeyStore persists the key.json a send_message_key frame
	// delivers, creating the staging directory on first reference.
	MessageKeyStore(messageID string, key MessageKey) error
	// MessageKeyLoad retrieves a previously stored key.json.
	MessageKeyLoad(messageID string) (MessageKey, error)
	// MessageAppendChunk appends a decrypted chunk to the staged blob
	// for messageID, opening the file in binary or text mode per the
	// caller's disposition decision (mime_type ∈ {image/png, image/jpg}).
	MessageAppendChunk(messageID string, filename string, binary bool, content []byte) error

	// SaveCurrentIPPort persists the Surface's bound listener address.
	SaveCurrentIPPort(ip string, port int) error
	// LoadCurrentIPPort reads back the Surface's bound listener address.
	LoadCurrentIPPort() (ip string, port int, err error)
}
