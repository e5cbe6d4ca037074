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

// Package keys generates and operates on the RSA-2048/e=65537 key pairs
// pckr identities use for RSA-OAEP encryption.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"

	pckrcrypto "github.com/jonhillmtl/pckr/crypto"
)

// rsaKeyPair implements crypto.KeyPair using RSA-OAEP (SHA-256).
type rsaKeyPair struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	id         string
}

// GenerateKeyPair generates a new 2048-bit RSA key pair with the public
// exponent 65537, matching the original's RSA.generate(2048, e=65537).
func GenerateKeyPair() (pckrcrypto.KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	return fromPrivateKey(privateKey), nil
}

func fromPrivateKey(privateKey *rsa.PrivateKey) *rsaKeyPair {
	publicKey := &privateKey.PublicKey

	modBytes := publicKey.N.Bytes()
	hash := sha256.Sum256(modBytes)
	id := hex.EncodeToString(hash[:8])

	return &rsaKeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         id,
	}
}

// PublicKey returns the public key.
func (kp *rsaKeyPair) PublicKey() *rsa.PublicKey {
	return kp.publicKey
}

// PrivateKey returns the private key.
func (kp *rsaKeyPair) PrivateKey() *rsa.PrivateKey {
	return kp.privateKey
}

// Encrypt RSA-OAEP (SHA-256) encrypts content under this key pair's
// public key.
func (kp *rsaKeyPair) Encrypt(content []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, kp.publicKey, content, nil)
}

// Decrypt RSA-OAEP (SHA-256) decrypts content with the held private key.
func (kp *rsaKeyPair) Decrypt(content []byte) ([]byte, error) {
	plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, kp.privateKey, content, nil)
	if err != nil {
		return nil, pckrcrypto.ErrDecryptionFailed
	}
	return plain, nil
}

// ID returns a short identifier derived from the public modulus hash.
func (kp *rsaKeyPair) ID() string {
	return kp.id
}

// EncryptWithPublicKey RSA-OAEP encrypts content under an arbitrary
// public key, for encrypting to a peer rather than to ourselves.
func EncryptWithPublicKey(content []byte, pub *rsa.PublicKey) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, content, nil)
}

// EncodePublicKeyPEM renders a public key as PEM text, the format the
// identity store's public.key file and host_info envelopes use.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	block := &pem.Block{Type: "RSA PUBLIC KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// DecodePublicKeyPEM parses PEM text produced by EncodePublicKeyPEM.
func DecodePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, pckrcrypto.ErrInvalidKeyFormat
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, pckrcrypto.ErrInvalidKeyFormat
	}
	return rsaPub, nil
}

// EncodePrivateKeyPEM renders a private key as PEM text, the format the
// identity store's private.key file uses.
func EncodePrivateKeyPEM(priv *rsa.PrivateKey) []byte {
	der := x509.MarshalPKCS1PrivateKey(priv)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	return pem.EncodeToMemory(block)
}

// DecodePrivateKeyPEM parses PEM text produced by EncodePrivateKeyPEM and
// returns a usable KeyPair.
func DecodePrivateKeyPEM(data []byte) (pckrcrypto.KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, pckrcrypto.ErrInvalidKeyFormat
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	return fromPrivateKey(priv), nil
}
