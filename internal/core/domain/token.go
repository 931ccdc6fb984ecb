package domain

import "encoding/base64"

// CSRF token constants.
const (
	// TokenSessionKey is the session key holding the live token.
	TokenSessionKey = "_token"

	// DefaultTokenField is the form field and query parameter name.
	DefaultTokenField = "_token"

	// DefaultTokenHeader is the request header checked for AJAX submissions.
	DefaultTokenHeader = "X-CSRF-Token"

	// MinTokenBytes is the minimum entropy of an issued token.
	MinTokenBytes = 32

	// MinTokenLength is the encoded length of MinTokenBytes (RawURL base64).
	MinTokenLength = 43
)

// ValidateTokenFormat reports whether s looks like an issued token:
// RawURL base64 without padding, at least MinTokenBytes once decoded.
func ValidateTokenFormat(s string) bool {
	if len(s) < MinTokenLength {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(raw) >= MinTokenBytes
}

// ValidFieldName reports whether name can be used as a form field and
// query parameter without escaping.
func ValidFieldName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}

// MaskToken masks a token for safe display.
// Example: AbC...xYz
func MaskToken(token string) string {
	if len(token) < 12 {
		return "***REDACTED***"
	}
	return token[:3] + "..." + token[len(token)-3:]
}
