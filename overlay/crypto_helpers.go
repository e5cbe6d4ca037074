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
	"crypto/rand"
	"crypto/rsa"

	"github.com/google/uuid"

	pckrcrypto "github.com/jonhillmtl/pckr/crypto"
	"github.com/jonhillmtl/pckr/crypto/keys"
	"github.com/jonhillmtl/pckr/crypto/symmetric"
)

// symmetricPasswordSize is the byte length of the freshly drawn
// passwords used to symmetric-encrypt host_info, public keys and
// message bodies. Blowfish keys may be 4-56 bytes; 16 keeps it well
// inside that range.
const symmetricPasswordSize = 16

func randomPassword() []byte {
	b := make([]byte, symmetricPasswordSize)
	_, _ = rand.Read(b)
	return b
}

func randomChallengeText() string {
	return uuid.NewString()
}

func newSeekToken() string {
	return uuid.NewString()
}

func decodePublicKeyPEM(pemText string) (*rsa.PublicKey, error) {
	return keys.DecodePublicKeyPEM([]byte(pemText))
}

// rsaEncryptHex RSA-OAEP encrypts content to pub and hex-encodes it.
func rsaEncryptHex(content []byte, pub *rsa.PublicKey) (string, error) {
	ct, err := keys.EncryptWithPublicKey(content, pub)
	if err != nil {
		return "", err
	}
	return pckrcrypto.HexEncode(ct), nil
}

// rsaDecryptHex decodes hex ciphertext and RSA-OAEP decrypts it with
// own's private key. A decrypt failure surfaces as
// pckrcrypto.ErrDecryptionFailed, the "not addressed to us" signal.
func rsaDecryptHex(own pckrcrypto.KeyPair, hexCiphertext string) ([]byte, error) {
	ct, err := pckrcrypto.HexDecode(hexCiphertext)
	if err != nil {
		return nil, err
	}
	return own.Decrypt(ct)
}

// symmetricEncryptHex pads, Blowfish-ECB encrypts and hex-encodes content.
func symmetricEncryptHex(content []byte, password []byte) (string, error) {
	ct, err := symmetric.Encrypt(content, password)
	if err != nil {
		return "", err
	}
	return pckrcrypto.HexEncode(ct), nil
}

// symmetricDecryptHex decodes hex ciphertext, Blowfish-ECB decrypts and
// strips the trailing ASCII-space padding.
func symmetricDecryptHex(hexCiphertext string, password []byte) ([]byte, error) {
	ct, err := pckrcrypto.HexDecode(hexCiphertext)
	if err != nil {
		return nil, err
	}
	pt, err := symmetric.Decrypt(ct, password)
	if err != nil {
		return nil, err
	}
	return symmetric.UnpadRight(pt), nil
}
