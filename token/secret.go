package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Algorithm selects the server-side hash applied to token secrets before
// storage and lookup. Secrets are opaque; only the hash is ever persisted.
type Algorithm string

const (
	// AlgSHA256 hashes secrets with SHA-256. The default.
	AlgSHA256 Algorithm = "sha256"

	// AlgSHA512 hashes secrets with SHA-512.
	AlgSHA512 Algorithm = "sha512"
)

const secretBytes = 32

// NewSecret generates a new opaque token secret from crypto/rand.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret computes the storage hash of a secret under the given algorithm.
func HashSecret(alg Algorithm, secret string) (string, error) {
	switch alg {
	case AlgSHA256, "":
		sum := sha256.Sum256([]byte(secret))
		return hex.EncodeToString(sum[:]), nil
	case AlgSHA512:
		sum := sha512.Sum512([]byte(secret))
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("token: unsupported hash algorithm %q", alg)
	}
}
