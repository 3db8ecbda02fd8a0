// Package token implements the case access secret: generation of the
// one-time bearer secret and derivation of the stored verifier hash.
// Both operations are pure and safe for concurrent use.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	// SecretLength is the hex length of a generated secret (32 random bytes).
	SecretLength = 64

	// MinPresentedLength is the cheapest pre-filter: anything shorter is
	// rejected before storage is touched.
	MinPresentedLength = 20
)

// Generate returns a new access secret: 256 bits from crypto/rand, hex
// encoded. The caller receives the only copy; the system stores just the
// Hash of it.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate access secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives the stored verifier for a secret. Deterministic: the same
// secret always yields the same verifier.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Match reports whether the presented secret hashes to storedHash. The
// comparison is constant-time over equal-length inputs; a length mismatch
// only reveals total length, which is not secret.
func Match(storedHash, presented string) bool {
	computed := Hash(presented)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
