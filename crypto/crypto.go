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

// Package crypto provides the cryptographic operations pckr's wire
// protocol depends on: RSA-OAEP asymmetric encryption for key wrap and
// challenges, and SHA-256 digests for custody-chain identifiers.
//
// The legacy symmetric cipher (Blowfish-ECB with space padding) lives in
// the crypto/symmetric subpackage; RSA key generation and OAEP
// encrypt/decrypt live in crypto/keys. This file is intentionally
// minimal to avoid circular dependencies between those subpackages.
package crypto
