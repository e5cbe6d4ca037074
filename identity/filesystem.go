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

package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonhillmtl/pckr/crypto"
	"github.com/jonhillmtl/pckr/crypto/keys"
)

// FilesystemStore is a Store backed by a per-user directory laid out the
// way the original pckr home directory was: public.key/private.key PEM
// files, an ipcache.json address book, a public_keys.json map, queued
// public_key_requests/public_key_responses directories, a seek_tokens.json
// set, messages/<message_id>/ and message_keys/<message_id>/ blob
// directories, and current_ip_port.json.
//
// A per-username mutex guards the in-memory maps; the maps are the
// source of truth and are flushed to disk on every mutation, so a crash
// loses at most the most recent write.
type FilesystemStore struct {
	rootDir  string
	username string
	keyPair  crypto.KeyPair

	mu                 sync.Mutex
	ipcache            map[string]Peer
	publicKeys         map[string]string
	publicKeyRequests  map[string]PublicKeyRequest
	publicKeyResponses map[string]PublicKeyResponse
	seekTokens         map[string]map[string]struct{}
}

// NewFilesystemStore opens (creating if necessary) the identity store
// rooted at rootDir/username. If no keypair exists yet, one is generated
// and persisted as public.key/private.key.
func NewFilesystemStore(rootDir, username string) (*FilesystemStore, error) {
	dir := filepath.Join(rootDir, username)
	for _, sub := range []string{"", "public_key_requests", "public_key_responses", "messages", "message_keys"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return nil, fmt.Errorf("identity: create %s: %w", sub, err)
		}
	}

	s := &FilesystemStore{
		rootDir:            dir,
		username:           username,
		ipcache:            map[string]Peer{},
		publicKeys:         map[string]string{},
		publicKeyRequests:  map[string]PublicKeyRequest{},
		publicKeyResponses: map[string]PublicKeyResponse{},
		seekTokens:         map[string]map[string]struct{}{},
	}

	if err := s.loadKeyPair(); err != nil {
		return nil, err
	}
	if err := s.loadJSON("ipcache.json", &s.ipcache); err != nil {
		return nil, err
	}
	if err := s.loadJSON("public_keys.json", &s.publicKeys); err != nil {
		return nil, err
	}
	if err := s.loadSeekTokens(); err != nil {
		return nil, err
	}
	if err := s.loadQueuedRequests(); err != nil {
		return nil, err
	}
	if err := s.loadQueuedResponses(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FilesystemStore) path(elem ...string) string {
	return filepath.Join(append([]string{s.rootDir}, elem...)...)
}

func (s *FilesystemStore) loadKeyPair() error {
	privPath := s.path("private.key")
	data, err := os.ReadFile(privPath)
	if os.IsNotExist(err) {
		kp, genErr := keys.GenerateKeyPair()
		if genErr != nil {
			return genErr
		}
		s.keyPair = kp
		return s.persistKeyPair()
	}
	if err != nil {
		return err
	}
	kp, err := keys.DecodePrivateKeyPEM(data)
	if err != nil {
		return fmt.Errorf("identity: parse private.key: %w", err)
	}
	s.keyPair = kp
	return nil
}

func (s *FilesystemStore) persistKeyPair() error {
	privPEM := keys.EncodePrivateKeyPEM(s.keyPair.PrivateKey())
	if err := os.WriteFile(s.path("private.key"), privPEM, 0o600); err != nil {
		return err
	}
	pubPEM, err := keys.EncodePublicKeyPEM(s.keyPair.PublicKey())
	if err != nil {
		return err
	}
	return os.WriteFile(s.path("public.key"), pubPEM, 0o644)
}

func (s *FilesystemStore) loadJSON(name string, out interface{}) error {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (s *FilesystemStore) saveJSON(name string, in interface{}) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(name), data, 0o600)
}

func (s *FilesystemStore) loadSeekTokens() error {
	raw := map[string][]string{}
	if err := s.loadJSON("seek_tokens.json", &raw); err != nil {
		return err
	}
	for username, tokens := range raw {
		set := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
		s.seekTokens[username] = set
	}
	return nil
}

func (s *FilesystemStore) saveSeekTokens() error {
	raw := make(map[string][]string, len(s.seekTokens))
	for username, set := range s.seekTokens {
		tokens := make([]string, 0, len(set))
		for tok := range set {
			tokens = append(tokens, tok)
		}
		raw[username] = tokens
	}
	return s.saveJSON("seek_tokens.json", raw)
}

func (s *FilesystemStore) loadQueuedRequests() error {
	entries, err := os.ReadDir(s.path("public_key_requests"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(s.path("public_key_requests", e.Name()))
		if err != nil {
			return err
		}
		var req PublicKeyRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		s.publicKeyRequests[req.FromUsername] = req
	}
	return nil
}

func (s *FilesystemStore) loadQueuedResponses() error {
	entries, err := os.ReadDir(s.path("public_key_responses"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(s.path("public_key_responses", e.Name()))
		if err != nil {
			return err
		}
		var resp PublicKeyResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return err
		}
		s.publicKeyResponses[resp.FromUsername] = resp
	}
	return nil
}

// Username returns the identity's own username.
func (s *FilesystemStore) Username() string { return s.username }

// KeyPair returns the identity's own RSA key pair.
func (s *FilesystemStore) KeyPair() crypto.KeyPair { return s.keyPair }

// IPCacheGet looks up a peer's last-known address.
func (s *FilesystemStore) IPCacheGet(username string) (Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ipcache[username]
	return p, ok
}

// IPCacheSet records or replaces a peer's address.
func (s *FilesystemStore) IPCacheSet(username string, peer Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ipcache[username] = peer
	_ = s.saveJSON("ipcache.json", s.ipcache)
}

// IPCacheRemove evicts a peer's address-book entry.
func (s *FilesystemStore) IPCacheRemove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ipcache, username)
	_ = s.saveJSON("ipcache.json", s.ipcache)
}

// IPCacheList returns a snapshot of every known peer address.
func (s *FilesystemStore) IPCacheList() map[string]Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Peer, len(s.ipcache))
	for k, v := range s.ipcache {
		out[k] = v
	}
	return out
}

// PublicKeyGet looks up a known peer's public key PEM.
func (s *FilesystemStore) PublicKeyGet(username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pem, ok := s.publicKeys[username]
	return pem, ok
}

// PublicKeySet stores a peer's public key PEM.
func (s *FilesystemStore) PublicKeySet(username string, pemText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKeys[username] = pemText
	_ = s.saveJSON("public_keys.json", s.publicKeys)
}

// PublicKeyList returns a snapshot of every known peer public key.
func (s *FilesystemStore) PublicKeyList() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.publicKeys))
	for k, v := range s.publicKeys {
		out[k] = v
	}
	return out
}

// StorePublicKeyRequest files (or idempotently replaces) the queued
// request_public_key for from_username: at most one request per
// username is ever queued.
func (s *FilesystemStore) StorePublicKeyRequest(req PublicKeyRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKeyRequests[req.FromUsername] = req
	_ = s.writeQueueEntry("public_key_requests", req.FromUsername, req)
}

// EnumeratePublicKeyRequests lists queued, unprocessed requests.
func (s *FilesystemStore) EnumeratePublicKeyRequests() []PublicKeyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PublicKeyRequest, 0, len(s.publicKeyRequests))
	for _, r := range s.publicKeyRequests {
		out = append(out, r)
	}
	return out
}

// RemovePublicKeyRequest removes a processed request.
func (s *FilesystemStore) RemovePublicKeyRequest(fromUsername string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.publicKeyRequests, fromUsername)
	_ = os.Remove(s.path("public_key_requests", queueFilename(fromUsername)))
}

// StorePublicKeyResponse files (or idempotently replaces) the queued
// public_key_response from from_username.
func (s *FilesystemStore) StorePublicKeyResponse(resp PublicKeyResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKeyResponses[resp.FromUsername] = resp
	_ = s.writeQueueEntry("public_key_responses", resp.FromUsername, resp)
}

// EnumeratePublicKeyResponses lists queued, unprocessed responses.
func (s *FilesystemStore) EnumeratePublicKeyResponses() []PublicKeyResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PublicKeyResponse, 0, len(s.publicKeyResponses))
	for _, r := range s.publicKeyResponses {
		out = append(out, r)
	}
	return out
}

// RemovePublicKeyResponse removes a processed response.
func (s *FilesystemStore) RemovePublicKeyResponse(fromUsername string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.publicKeyResponses, fromUsername)
	_ = os.Remove(s.path("public_key_responses", queueFilename(fromUsername)))
}

func (s *FilesystemStore) writeQueueEntry(dir, fromUsername string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(dir, queueFilename(fromUsername)), data, 0o600)
}

func queueFilename(fromUsername string) string {
	return fromUsername + ".json"
}

// SeekTokenAdd records a freshly minted seek_token for username.
func (s *FilesystemStore) SeekTokenAdd(username string, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.seekTokens[username]
	if !ok {
		set = map[string]struct{}{}
		s.seekTokens[username] = set
	}
	set[token] = struct{}{}
	_ = s.saveSeekTokens()
}

// SeekTokenContains reports whether token is among those issued for
// username. Tokens are not single-use: a matching token remains valid
// for every subsequent seek_user_response bearing it.
func (s *FilesystemStore) SeekTokenContains(username string, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.seekTokens[username]
	if !ok {
		return false
	}
	_, ok = set[token]
	return ok
}

// MessageKeyStore persists the key.json a send_message_key frame
// delivers.
func (s *FilesystemStore) MessageKeyStore(messageID string, key MessageKey) error {
	dir := s.path("message_keys", messageID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "key.json"), data, 0o600); err != nil {
		return err
	}
	return os.MkdirAll(s.path("messages", messageID), 0o700)
}

// MessageKeyLoad retrieves a previously stored key.json.
func (s *FilesystemStore) MessageKeyLoad(messageID string) (MessageKey, error) {
	data, err := os.ReadFile(s.path("message_keys", messageID, "key.json"))
	if os.IsNotExist(err) {
		return MessageKey{}, ErrMessageKeyNotFound
	}
	if err != nil {
		return MessageKey{}, err
	}
	var key MessageKey
	if err := json.Unmarshal(data, &key); err != nil {
		return MessageKey{}, err
	}
	return key, nil
}

// MessageAppendChunk appends a decrypted chunk to the staged blob for
// messageID.
func (s *FilesystemStore) MessageAppendChunk(messageID string, filename string, binary bool, content []byte) error {
	dir := s.path("messages", messageID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrChunkBeforeKey
	}

	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	f, err := os.OpenFile(filepath.Join(dir, filename), flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if binary {
		_, err = f.Write(content)
	} else {
		_, err = f.WriteString(string(content))
	}
	return err
}

// SaveCurrentIPPort persists the Surface's bound listener address.
func (s *FilesystemStore) SaveCurrentIPPort(ip string, port int) error {
	return s.saveJSON("current_ip_port.json", currentIPPort{IP: ip, Port: port, SavedAt: time.Now()})
}

// LoadCurrentIPPort reads back the Surface's bound listener address.
func (s *FilesystemStore) LoadCurrentIPPort() (string, int, error) {
	var v currentIPPort
	data, err := os.ReadFile(s.path("current_ip_port.json"))
	if os.IsNotExist(err) {
		return "", 0, ErrCurrentIPPortUnset
	}
	if err != nil {
		return "", 0, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", 0, err
	}
	return v.IP, v.Port, nil
}

type currentIPPort struct {
	IP      string    `json:"ip"`
	Port    int       `json:"port"`
	SavedAt time.Time `json:"saved_at"`
}
