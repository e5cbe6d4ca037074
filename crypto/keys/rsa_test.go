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

package keys

import (
	"testing"

	pckrcrypto "github.com/jonhillmtl/pckr/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.NotNil(t, keyPair)
	assert.NotNil(t, keyPair.PublicKey())
	assert.NotNil(t, keyPair.PrivateKey())
	assert.NotEmpty(t, keyPair.ID())
	assert.Equal(t, 2048, keyPair.PublicKey().N.BitLen())
	assert.Equal(t, 65537, keyPair.PublicKey().E)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	require.NoError(t, err)

	content := []byte("a fresh symmetric password")

	ciphertext, err := keyPair.Encrypt(content)
	require.NoError(t, err)
	assert.NotEqual(t, content, ciphertext)

	plaintext, err := keyPair.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, content, plaintext)
}

func TestDecryptNotAddressedToUs(t *testing.T) {
	ours, err := GenerateKeyPair()
	require.NoError(t, err)

	theirs, err := GenerateKeyPair()
	require.NoError(t, err)

	ciphertext, err := theirs.Encrypt([]byte("not for you"))
	require.NoError(t, err)

	_, err = ours.Decrypt(ciphertext)
	assert.ErrorIs(t, err, pckrcrypto.ErrDecryptionFailed)
}

func TestMultipleKeyPairsHaveDifferentIDs(t *testing.T) {
	kp1, err := GenerateKeyPair()
	require.NoError(t, err)

	kp2, err := GenerateKeyPair()
	require.NoError(t, err)

	assert.NotEqual(t, kp1.ID(), kp2.ID())
}

func TestPublicKeyPEMRoundTrip(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	require.NoError(t, err)

	pemBytes, err := EncodePublicKeyPEM(keyPair.PublicKey())
	require.NoError(t, err)
	assert.Contains(t, string(pemBytes), "PUBLIC KEY")

	decoded, err := DecodePublicKeyPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, keyPair.PublicKey().N, decoded.N)
	assert.Equal(t, keyPair.PublicKey().E, decoded.E)
}

func TestPrivateKeyPEMRoundTrip(t *testing.T) {
	keyPair, err := GenerateKeyPair()
	require.NoError(t, err)

	pemBytes := EncodePrivateKeyPEM(keyPair.PrivateKey())
	assert.Contains(t, string(pemBytes), "PRIVATE KEY")

	decoded, err := DecodePrivateKeyPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, keyPair.ID(), decoded.ID())

	ciphertext, err := EncryptWithPublicKey([]byte("hello"), keyPair.PublicKey())
	require.NoError(t, err)

	plaintext, err := decoded.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plaintext)
}
