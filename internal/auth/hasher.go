// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. N=16384 keeps interactive logins under ~100ms while
// staying memory-hard (16 MB per derivation).
const (
	scryptN       = 16384 // CPU/memory cost
	scryptR       = 8     // block size
	scryptP       = 1     // parallelism
	scryptSaltLen = 16    // salt length in bytes
	scryptKeyLen  = 32    // derived key length in bytes
)

// digestSeparator joins the derived key and the salt in a stored digest.
// Both halves are hex-encoded, so "." can never occur inside either of them
// and the verifier can always recover the salt by splitting on it.
const digestSeparator = "."

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted scrypt digest of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch or malformed digest.
	Verify(password, digest string) (bool, error)
}

// ScryptHasher implements PasswordHasher using scrypt.
type ScryptHasher struct{}

// NewScryptHasher creates a new ScryptHasher.
func NewScryptHasher() *ScryptHasher {
	return &ScryptHasher{}
}

// Hash produces a salted scrypt digest of the password.
// The digest is "<hex key>.<hex salt>"; a fresh random salt is generated per
// call, so hashing the same password twice yields two different digests.
func (h *ScryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, scryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	return hex.EncodeToString(key) + digestSeparator + hex.EncodeToString(salt), nil
}

// Verify checks if the password matches the digest.
// Malformed digests fail closed: they report a plain mismatch instead of an
// error, so callers cannot leak whether a stored record existed.
func (h *ScryptHasher) Verify(password, digest string) (bool, error) {
	keyHex, saltHex, found := strings.Cut(digest, digestSeparator)
	if !found {
		return false, nil
	}

	expected, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, nil
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, nil
	}
	if len(expected) != scryptKeyLen || len(salt) != scryptSaltLen {
		return false, nil
	}

	computed, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
