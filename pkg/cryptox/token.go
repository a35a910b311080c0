package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Secret size constants (in bytes before encoding).
const (
	// SecretSize128 provides 128 bits of entropy (22 chars base64url).
	SecretSize128 = 16
	// SecretSize256 provides 256 bits of entropy (43 chars base64url).
	SecretSize256 = 32
)

// GenerateSecret creates a cryptographically secure random secret of the
// specified byte length, returned as a base64url string (URL-safe, no
// padding). Refresh-session secrets use SecretSize256.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DigestSecret returns the deterministic hex-encoded SHA-256 digest of a
// secret. Only the digest is ever persisted; the secret itself is handed to
// the client exactly once.
func DigestSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifySecret compares a presented secret against a stored hex digest in
// constant time. A stored digest that fails to decode or has an unexpected
// length is a plain no-match, never an error.
func VerifySecret(secret, storedHexDigest string) bool {
	stored, err := hex.DecodeString(storedHexDigest)
	if err != nil {
		return false
	}
	sum := sha256.Sum256([]byte(secret))
	// ConstantTimeCompare reports 0 for length mismatches without leaking
	// where the difference is.
	return subtle.ConstantTimeCompare(sum[:], stored) == 1
}
