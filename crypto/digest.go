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
	"crypto/sha256"
	"encoding/hex"
)

// HashUsername returns the lowercase hex SHA-256 digest of a username,
// the identifier custody chains propagate instead of the plaintext name.
func HashUsername(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])
}

// HexEncode renders binary content as lowercase hex text, the encoding
// every binary-in-JSON wire field (passwords, encrypted payloads) uses.
func HexEncode(content []byte) string {
	return hex.EncodeToString(content)
}

// HexDecode parses lowercase hex text back into binary content.
func HexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
