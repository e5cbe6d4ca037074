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

package crypto

import (
	"crypto/rsa"
	"errors"
)

// KeyFormat represents the format for key export/import. pckr only ever
// writes PEM text to the identity store's public.key/private.key files.
type KeyFormat string

const KeyFormatPEM KeyFormat = "PEM"

// KeyPair represents an RSA-OAEP key pair: the asymmetric primitive used
// for host_info key wrap, challenge_user_pk and challenge_user_has_pk.
type KeyPair interface {
	// PublicKey returns the public key.
	PublicKey() *rsa.PublicKey

	// PrivateKey returns the private key.
	PrivateKey() *rsa.PrivateKey

	// Encrypt RSA-OAEP encrypts content under this key pair's own public key.
	Encrypt(content []byte) ([]byte, error)

	// Decrypt RSA-OAEP decrypts content with the held private key. A
	// decrypt failure here is the "this frame was not addressed to me"
	// signal the seek protocol relies on, not necessarily a fault.
	Decrypt(content []byte) ([]byte, error)

	// ID returns a short identifier derived from the public modulus,
	// used for logging and as a default filename stem.
	ID() string
}

// KeyStorage provides on-disk PEM storage for key pairs, one id per
// identity (see the identity package's filesystem store).
type KeyStorage interface {
	Store(id string, keyPair KeyPair) error
	Load(id string) (KeyPair, error)
	Delete(id string) error
	List() ([]string, error)
	Exists(id string) bool
}

// Common errors
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrKeyExists        = errors.New("key already exists")
	ErrDecryptionFailed = errors.New("decryption failed")
)
