package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form TG-<AREA>-<NNNN>; the last four digits start with
// the HTTP status the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "TG-SESS-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates the requested session was not found.
	ErrSessionNotFound = NewDomainError("TG-SESS-4040", "session not found")

	// ErrSessionExpired indicates the session has expired.
	ErrSessionExpired = NewDomainError("TG-SESS-4041", "session expired")

	// ErrInvalidSessionID indicates a malformed session identifier.
	ErrInvalidSessionID = NewDomainError("TG-SESS-4001", "invalid session id")

	// ErrSessionUnreadable indicates a stored record that exists but cannot
	// be decoded: corrupt, sealed without a key, or sealed under another key.
	ErrSessionUnreadable = NewDomainError("TG-SESS-5002", "session record unreadable")
)

// ============================================================================
// CSRF Errors (CSRF)
// ============================================================================

var (
	// ErrVerificationFailed is the HTTP surface of a failed token check.
	// TokenGuard itself reports failures as false, never as this error.
	ErrVerificationFailed = NewDomainError("TG-CSRF-4030", "csrf token verification failed")

	// ErrInvalidTokenFormat indicates a value that cannot be a token.
	ErrInvalidTokenFormat = NewDomainError("TG-TOKEN-4001", "invalid token format")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrUnauthorized indicates missing or wrong admin credentials.
	ErrUnauthorized = NewDomainError("TG-AUTH-4010", "unauthorized")

	// ErrForbidden indicates the caller may not use this endpoint.
	ErrForbidden = NewDomainError("TG-AUTH-4030", "forbidden")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrStorageUnavailable indicates the session store cannot be read or written.
	ErrStorageUnavailable = NewDomainError("TG-SYS-5030", "session storage unavailable")

	// ErrInternal indicates an internal server error.
	ErrInternal = NewDomainError("TG-SYS-5000", "internal server error")

	// ErrConfigInvalid indicates a configuration that failed validation.
	ErrConfigInvalid = NewDomainError("TG-SYS-5001", "invalid configuration")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("TG-SYS-4290", "too many requests")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TG-SYS-4000", "bad request")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TG-ARG-4000", "invalid argument")
)
