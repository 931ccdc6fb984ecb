package service

import (
	"context"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/pkg/token"
)

// SessionInfo is the operator view of a session. The token itself is never
// included.
type SessionInfo struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	LastActive       time.Time `json:"last_active"`
	ExpiresAt        time.Time `json:"expires_at"`
	Keys             int       `json:"keys"`
	HasToken         bool      `json:"has_token"`
	TokenMasked      string    `json:"token_masked,omitempty"`
	TokenFingerprint string    `json:"token_fingerprint,omitempty"`
}

// NewSessionInfo builds the operator view of sess.
func NewSessionInfo(sess *domain.Session) *SessionInfo {
	info := &SessionInfo{
		ID:         sess.ID,
		CreatedAt:  sess.CreatedAtTime(),
		LastActive: sess.LastActiveTime(),
		ExpiresAt:  sess.ExpiresAtTime(),
		Keys:       len(sess.Values),
	}
	if v := sess.Values[domain.TokenSessionKey]; v != "" {
		info.HasToken = true
		info.TokenMasked = domain.MaskToken(v)
		info.TokenFingerprint = token.Fingerprint(v)
	}
	return info
}

// AdminService backs the operator API: inspect, rotate and revoke.
type AdminService struct {
	sessions *SessionManager
	guard    *TokenGuard
}

// NewAdminService creates an AdminService. guard is used as a template
// and bound to each session it rotates.
func NewAdminService(sessions *SessionManager, guard *TokenGuard) *AdminService {
	return &AdminService{sessions: sessions, guard: guard}
}

// Inspect returns the operator view of a session.
func (s *AdminService) Inspect(ctx context.Context, id string) (*SessionInfo, error) {
	sess, err := s.sessions.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewSessionInfo(sess), nil
}

// RotateToken replaces the CSRF token of a stored session. Pages rendered
// before the rotation stop verifying. The session's expiry is unchanged.
func (s *AdminService) RotateToken(ctx context.Context, id string) (*SessionInfo, error) {
	sess, err := s.sessions.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	rs := NewRequestSession(sess)
	if _, err := s.guard.Bind(rs).Rotate(); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, rs); err != nil {
		return nil, err
	}
	return NewSessionInfo(rs.Snapshot()), nil
}

// Revoke deletes a session.
func (s *AdminService) Revoke(ctx context.Context, id string) error {
	return s.sessions.Revoke(ctx, id)
}

// ActiveSessions returns the live session count.
func (s *AdminService) ActiveSessions(ctx context.Context) (int, error) {
	return s.sessions.Count(ctx)
}

// GenerateToken returns a fresh token value not bound to any session,
// for operators seeding fixtures or checking entropy settings.
func (s *AdminService) GenerateToken() (string, error) {
	v, err := token.GenerateFrom(s.guard.rand, s.guard.size)
	if err != nil {
		return "", domain.ErrInternal.WithCause(err)
	}
	return v, nil
}
