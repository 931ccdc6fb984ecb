package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 32

// MinLength is the smallest accepted token length in bytes.
const MinLength = 32

// ErrTooShort is returned when a caller asks for fewer than MinLength bytes.
var ErrTooShort = errors.New("token: length below minimum")

// Generate generates a cryptographically secure random token.
//
// The returned token is Base64 RawURL encoded for safe URL transmission.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	return GenerateFrom(rand.Reader, length)
}

// GenerateFrom reads length bytes from r and encodes them.
// Tests pass a deterministic reader; production code passes crypto/rand.
func GenerateFrom(r io.Reader, length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("%w: %d < %d", ErrTooShort, length, MinLength)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("token: read entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// EncodedLen returns the encoded length of a token of n random bytes.
func EncodedLen(n int) int {
	return base64.RawURLEncoding.EncodedLen(n)
}

// Decode returns the raw bytes of an encoded token.
func Decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
