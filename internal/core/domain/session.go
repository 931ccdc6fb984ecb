package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session constraints.
const (
	MaxValueKeyLength  = 64
	MaxValueLength     = 1024 // 1KB per value
	MaxValuesTotalSize = 4096 // 4KB total

	// SessionIDPrefix is the prefix for session IDs.
	SessionIDPrefix = "tgss-"

	sessionIDLength = len(SessionIDPrefix) + ulid.EncodedSize
)

// Session is the server-side record behind a session cookie.
type Session struct {
	// ID format: tgss-{ulid_lowercase}, 31 characters total.
	ID string `json:"id"`

	// Values holds the session key/value pairs. The CSRF token lives
	// under TokenSessionKey.
	Values map[string]string `json:"values"`

	// CreatedAt is the session creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at"`

	// LastActive is the last activity timestamp (Unix milliseconds).
	LastActive int64 `json:"last_active"`

	// ExpiresAt is the absolute expiration timestamp (Unix milliseconds).
	// Zero means no expiry.
	ExpiresAt int64 `json:"expires_at"`
}

// NewSession creates an empty Session with a generated ID.
func NewSession() (*Session, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	return &Session{
		ID:         id,
		Values:     make(map[string]string),
		CreatedAt:  now,
		LastActive: now,
	}, nil
}

// GenerateSessionID generates a new session ID using ULID.
func GenerateSessionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return SessionIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidSessionID checks if a string is a valid session ID.
func IsValidSessionID(id string) bool {
	if len(id) != sessionIDLength || !strings.HasPrefix(id, SessionIDPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(SessionIDPrefix):]))
	return err == nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.ExpiresAt != 0 && time.Now().UnixMilli() > s.ExpiresAt
}

// TTL returns the remaining lifetime. Zero means expired or unbounded.
func (s *Session) TTL() time.Duration {
	if s.ExpiresAt == 0 {
		return 0
	}
	remaining := s.ExpiresAt - time.Now().UnixMilli()
	if remaining < 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// Touch records activity and pushes expiry ttl into the future.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.LastActive = now.UnixMilli()
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl).UnixMilli()
	}
}

// Validate checks the Values map against size constraints.
func (s *Session) Validate() error {
	var total int
	for k, v := range s.Values {
		if k == "" || len(k) > MaxValueKeyLength {
			return ErrInvalidArgument.WithDetails("session key length must be 1-64")
		}
		if len(v) > MaxValueLength {
			return ErrInvalidArgument.WithDetails("session value exceeds 1KB")
		}
		total += len(k) + len(v)
	}
	if total > MaxValuesTotalSize {
		return ErrInvalidArgument.WithDetails("session values exceed 4KB")
	}
	return nil
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		clone.Values[k] = v
	}
	return &clone
}

// CreatedAtTime returns CreatedAt as time.Time.
func (s *Session) CreatedAtTime() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// LastActiveTime returns LastActive as time.Time.
func (s *Session) LastActiveTime() time.Time {
	return time.UnixMilli(s.LastActive)
}

// ExpiresAtTime returns ExpiresAt as time.Time, zero if unbounded.
func (s *Session) ExpiresAtTime() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.ExpiresAt)
}
