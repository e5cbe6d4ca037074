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

package symmetric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadAlwaysAddsAtLeastOneByte(t *testing.T) {
	exact := make([]byte, 16)
	padded := Pad(exact)
	assert.Len(t, padded, 32, "content already a multiple of 16 must still gain a full 16 bytes of padding")

	short := []byte("hello")
	padded = Pad(short)
	assert.Len(t, padded, 16)
	assert.Equal(t, []byte("hello"), padded[:5])
	for _, b := range padded[5:] {
		assert.Equal(t, byte(' '), b)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	password := []byte("a-symmetric-password")
	content := []byte("the quick brown fox")

	ciphertext, err := Encrypt(content, password)
	require.NoError(t, err)
	assert.NotEqual(t, content, ciphertext)
	assert.Equal(t, 0, len(ciphertext)%blockSize)

	plaintext, err := Decrypt(ciphertext, password)
	require.NoError(t, err)
	assert.Equal(t, content, UnpadRight(plaintext))
}

func TestDecryptWrongPasswordProducesGarbage(t *testing.T) {
	content := []byte("sensitive content")
	ciphertext, err := Encrypt(content, []byte("password-one"))
	require.NoError(t, err)

	plaintext, err := Decrypt(ciphertext, []byte("password-two"))
	require.NoError(t, err) // ECB decrypt never fails outright, it just produces garbage
	assert.NotEqual(t, content, UnpadRight(plaintext))
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	_, err := Decrypt([]byte("notablock"), []byte("password"))
	assert.ErrorIs(t, err, ErrInvalidCiphertextLength)
}

func TestUnpadRightRestoresOriginalContent(t *testing.T) {
	content := []byte("hi there")
	padded := Pad(content)
	assert.Equal(t, content, UnpadRight(padded))
}
