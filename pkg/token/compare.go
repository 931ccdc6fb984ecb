package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Equal reports whether submitted matches expected.
//
// Empty values never match, so an absent submission cannot verify
// against an absent stored token.
func Equal(submitted, expected string) bool {
	if submitted == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1
}

// Fingerprint returns the first 12 hex characters of SHA-256(token).
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:6])
}
