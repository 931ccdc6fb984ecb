// Package token generates and compares anti-forgery token values.
//
// Format:
//
//   - Body: Base64 RawURL encoding of random bytes, no padding
//   - 32 bytes (the minimum) encode to 43 characters
//
// Security:
//
//   - crypto/rand is the default entropy source
//   - Equal uses crypto/subtle so comparison time does not depend on
//     where two values first differ
//   - Fingerprint is a truncated SHA-256 used to correlate log lines
//     without writing the token itself
package token
