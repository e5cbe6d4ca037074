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

// Package symmetric implements the legacy 64-bit-block symmetric cipher
// pckr preserves for interop: Blowfish in ECB mode with ASCII-space
// padding to a 16-byte boundary. This choice predates the module and is
// kept deliberately rather than swapped for an authenticated mode.
package symmetric

import (
	"bytes"

	"golang.org/x/crypto/blowfish"
)

const (
	blockSize = blowfish.BlockSize // 8 bytes
	padTo     = 16
	padByte   = ' '
)

// Pad pads content with ASCII spaces to the next 16-byte boundary. It
// always appends at least one pad byte, even when content is already a
// multiple of 16 — matching the original's len(content) % 16 arithmetic,
// which yields a full 16 bytes of padding rather than zero.
func Pad(content []byte) []byte {
	n := padTo - (len(content) % padTo)
	padded := make([]byte, len(content)+n)
	copy(padded, content)
	for i := len(content); i < len(padded); i++ {
		padded[i] = padByte
	}
	return padded
}

// UnpadRight trims trailing ASCII space bytes, the inverse of Pad for
// callers that don't already know the original content length from
// elsewhere in the message metadata.
func UnpadRight(content []byte) []byte {
	return bytes.TrimRight(content, string(padByte))
}

// Encrypt pads content and Blowfish-ECB encrypts it block by block under
// password.
func Encrypt(content []byte, password []byte) ([]byte, error) {
	cipher, err := blowfish.NewCipher(password)
	if err != nil {
		return nil, err
	}

	padded := Pad(content)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += blockSize {
		cipher.Encrypt(out[i:i+blockSize], padded[i:i+blockSize])
	}
	return out, nil
}

// Decrypt Blowfish-ECB decrypts content under password. The result
// retains whatever space padding Encrypt added; callers that need the
// exact original length should track it separately (as the protocol's
// meta/key/term envelopes do) or call UnpadRight.
func Decrypt(content []byte, password []byte) ([]byte, error) {
	cipher, err := blowfish.NewCipher(password)
	if err != nil {
		return nil, err
	}
	if len(content)%blockSize != 0 {
		return nil, ErrInvalidCiphertextLength
	}

	out := make([]byte, len(content))
	for i := 0; i < len(content); i += blockSize {
		cipher.Decrypt(out[i:i+blockSize], content[i:i+blockSize])
	}
	return out, nil
}
