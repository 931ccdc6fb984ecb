// Package domain defines the core domain models for tokguard.
//
// Domain models are pure value objects without IO dependencies:
//
//   - Session: per-visitor key/value record with expiry
//   - CSRF token constants, format checks and masking
//   - DomainError and the error code taxonomy
package domain
