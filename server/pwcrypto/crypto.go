// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package pwcrypto encrypts captured passwords with a public key so that only the holder of the private key can read
// them back from the audit trail. Encryption uses anonymous NaCl sealed boxes (Curve25519, XSalsa20, Poly1305).
package pwcrypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"

	"golang.org/x/crypto/nacl/box"
)

const probe = "honeyauth-probe"

// PasswordCrypto holds a loaded public key. It is safe for concurrent use.
type PasswordCrypto struct {
	publicKey *[definitions.PasswordPublicKeySize]byte
	random    io.Reader
}

// New decodes a base64 encoded public key. A probe encryption is performed so that a broken key or random source is
// reported now and not on the first login attempt.
func New(encodedKey string) (*PasswordCrypto, error) {
	return newWithReader(encodedKey, rand.Reader)
}

func newWithReader(encodedKey string, random io.Reader) (*PasswordCrypto, error) {
	key, err := decodeKey(encodedKey)
	if err != nil {
		return nil, err
	}

	p := &PasswordCrypto{publicKey: key, random: random}

	if _, err = p.Encrypt([]byte(probe)); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCryptoConfig, err)
	}

	return p, nil
}

// Encrypt seals secret for the configured public key and returns the result base64 encoded. Every call produces a
// different ciphertext.
func (p *PasswordCrypto) Encrypt(secret []byte) (string, error) {
	sealed, err := box.SealAnonymous(nil, secret, p.publicKey, p.random)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrEncryption, err)
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value returned by Encrypt with the matching key pair.
func Decrypt(encoded string, encodedPublicKey string, encodedPrivateKey string) ([]byte, error) {
	publicKey, err := decodeKey(encodedPublicKey)
	if err != nil {
		return nil, err
	}

	privateKey, err := decodeKey(encodedPrivateKey)
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrDecryption, err)
	}

	plain, ok := box.OpenAnonymous(nil, sealed, publicKey, privateKey)
	if !ok {
		return nil, errors.ErrDecryption
	}

	return plain, nil
}

// GenerateKeyPair returns a new base64 encoded key pair. The public key is the value for pw_pubkey.
func GenerateKeyPair() (publicKey string, privateKey string, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}

	return base64.StdEncoding.EncodeToString(pub[:]), base64.StdEncoding.EncodeToString(priv[:]), nil
}

func decodeKey(encodedKey string) (*[definitions.PasswordPublicKeySize]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCryptoConfig, err)
	}

	if len(raw) != definitions.PasswordPublicKeySize {
		return nil, fmt.Errorf("%w: key has %d bytes, want %d", errors.ErrCryptoConfig, len(raw), definitions.PasswordPublicKeySize)
	}

	key := new([definitions.PasswordPublicKeySize]byte)
	copy(key[:], raw)

	return key, nil
}
