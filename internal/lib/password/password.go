// Package password wraps bcrypt hashing for stored credentials.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new hashes.
const Cost = bcrypt.DefaultCost

// Hash derives a salted one-way digest from the plaintext. The salt is
// generated per call, so hashing the same password twice yields
// different digests.
func Hash(plaintext string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return nil, fmt.Errorf("password.Hash: %w", err)
	}

	return hash, nil
}

// Verify reports whether the plaintext matches the digest. The compare
// is constant-time relative to the digest. A malformed digest verifies
// as false, never as an error.
func Verify(plaintext string, digest []byte) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(plaintext)) == nil
}
