package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
)

// Session end reasons, used as metric labels.
const (
	EndDestroy = "destroy"
	EndRenew   = "renew"
	EndRevoke  = "revoke"
)

// SessionConfig holds configuration for SessionManager.
type SessionConfig struct {
	// TTL is the idle lifetime of a session (default: 2h).
	TTL time.Duration

	// Sliding refreshes the expiry on every committed request (default: true).
	Sliding bool
}

// DefaultSessionConfig returns default configuration.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:     2 * time.Hour,
		Sliding: true,
	}
}

// RequestSession is one request's view of a session. It implements
// SessionStore; after Destroy every access fails with
// domain.ErrStorageUnavailable.
type RequestSession struct {
	mu        sync.Mutex
	sess      *domain.Session
	isNew     bool
	dirty     bool
	persisted bool
	destroyed bool
}

// NewRequestSession wraps a loaded record. Exposed for admin tooling and
// tests; request handling goes through SessionManager.Start.
func NewRequestSession(sess *domain.Session) *RequestSession {
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	return &RequestSession{sess: sess, persisted: true}
}

var errNotStarted = domain.ErrStorageUnavailable.WithDetails("session not started")

// ID returns the session id.
func (s *RequestSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.ID
}

// IsNew reports whether the session was created by this request.
func (s *RequestSession) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNew
}

// Persisted reports whether the backend holds this session.
func (s *RequestSession) Persisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted && !s.destroyed
}

// Destroyed reports whether Destroy ran on this session.
func (s *RequestSession) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Get implements SessionStore.
func (s *RequestSession) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return "", false, errNotStarted
	}
	v, ok := s.sess.Values[key]
	return v, ok, nil
}

// Set implements SessionStore.
func (s *RequestSession) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return errNotStarted
	}
	if cur, ok := s.sess.Values[key]; ok && cur == value {
		return nil
	}
	s.sess.Values[key] = value
	s.dirty = true
	return nil
}

// Remove implements SessionStore.
func (s *RequestSession) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return errNotStarted
	}
	if _, ok := s.sess.Values[key]; ok {
		delete(s.sess.Values, key)
		s.dirty = true
	}
	return nil
}

// Has implements SessionStore.
func (s *RequestSession) Has(key string) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

// Snapshot returns a copy of the underlying record.
func (s *RequestSession) Snapshot() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Clone()
}

// SessionManager opens and persists per-request sessions.
type SessionManager struct {
	backend SessionBackend
	ttl     time.Duration
	sliding bool
	deps
}

// NewSessionManager creates a SessionManager over backend.
func NewSessionManager(backend SessionBackend, config *SessionConfig, opts ...Option) *SessionManager {
	if config == nil {
		config = DefaultSessionConfig()
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultSessionConfig().TTL
	}
	return &SessionManager{
		backend: backend,
		ttl:     ttl,
		sliding: config.Sliding,
		deps:    newDeps(opts),
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Start loads the session named by id, or creates a fresh one when id is
// empty, malformed, unknown or expired. Only backend failures are errors.
func (m *SessionManager) Start(ctx context.Context, id string) (*RequestSession, error) {
	if id != "" && domain.IsValidSessionID(id) {
		sess, err := m.backend.Load(ctx, id)
		switch {
		case err == nil && !sess.IsExpired():
			m.rec.SessionStarted(false)
			return NewRequestSession(sess), nil
		case err == nil, errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
			// fall through to a new session
		case errors.Is(err, domain.ErrSessionUnreadable):
			// A record written under another encryption key, or corrupt.
			m.rec.StorageFailed("decode")
			m.log.Warn("discarding unreadable session record", "session_id", id, "error", err)
		default:
			m.rec.StorageFailed("load")
			return nil, storageError(err)
		}
	}

	sess, err := domain.NewSession()
	if err != nil {
		return nil, err
	}
	sess.Touch(m.ttl)
	m.rec.SessionStarted(true)
	return &RequestSession{sess: sess, isNew: true}, nil
}

// Commit persists the session if it changed, or refreshes its expiry when
// sliding expiry is on. Destroyed and untouched new sessions are skipped.
func (m *SessionManager) Commit(ctx context.Context, s *RequestSession) error {
	s.mu.Lock()
	if s.destroyed || (!s.dirty && (!s.persisted || !m.sliding)) {
		s.mu.Unlock()
		return nil
	}
	s.sess.Touch(m.ttl)
	snap := s.sess.Clone()
	s.mu.Unlock()

	return m.save(ctx, s, snap, m.ttl)
}

// Update persists a change made outside a visitor request, such as an
// operator rotating the token. The record keeps its expiry and last
// activity time.
func (m *SessionManager) Update(ctx context.Context, s *RequestSession) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errNotStarted
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snap := s.sess.Clone()
	s.mu.Unlock()

	ttl := snap.TTL()
	if ttl <= 0 {
		return domain.ErrSessionExpired.WithDetails(snap.ID)
	}
	return m.save(ctx, s, snap, ttl)
}

func (m *SessionManager) save(ctx context.Context, s *RequestSession, snap *domain.Session, ttl time.Duration) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := m.backend.Save(ctx, snap, ttl); err != nil {
		m.rec.StorageFailed("save")
		return storageError(err)
	}

	s.mu.Lock()
	s.dirty = false
	s.persisted = true
	s.mu.Unlock()
	return nil
}

// Renew moves the session to a new id and drops its CSRF token. Call it at
// login and logout boundaries.
func (m *SessionManager) Renew(ctx context.Context, s *RequestSession) error {
	newID, err := domain.GenerateSessionID()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errNotStarted
	}
	oldID, wasPersisted := s.sess.ID, s.persisted
	s.sess.ID = newID
	delete(s.sess.Values, domain.TokenSessionKey)
	s.dirty = true
	s.persisted = false
	s.mu.Unlock()

	m.rec.SessionEnded(EndRenew)
	if wasPersisted {
		if err := m.backend.Delete(ctx, oldID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			m.rec.StorageFailed("delete")
			return storageError(err)
		}
	}
	m.log.Debug("session renewed", "old_session_id", oldID, "session_id", newID)
	return nil
}

// Destroy deletes the session. The RequestSession is unusable afterwards.
func (m *SessionManager) Destroy(ctx context.Context, s *RequestSession) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	id, wasPersisted := s.sess.ID, s.persisted
	s.destroyed = true
	s.sess.Values = map[string]string{}
	s.mu.Unlock()

	m.rec.SessionEnded(EndDestroy)
	if !wasPersisted {
		return nil
	}
	if err := m.backend.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.rec.StorageFailed("delete")
		return storageError(err)
	}
	return nil
}

// Lookup loads a session for inspection without touching it.
func (m *SessionManager) Lookup(ctx context.Context, id string) (*domain.Session, error) {
	if !domain.IsValidSessionID(id) {
		return nil, domain.ErrInvalidSessionID.WithDetails(id)
	}
	sess, err := m.backend.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionUnreadable) {
			return nil, err
		}
		m.rec.StorageFailed("load")
		return nil, storageError(err)
	}
	if sess.IsExpired() {
		return nil, domain.ErrSessionExpired
	}
	return sess, nil
}

// Revoke deletes a session by id.
func (m *SessionManager) Revoke(ctx context.Context, id string) error {
	if _, err := m.Lookup(ctx, id); err != nil {
		return err
	}
	if err := m.backend.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		m.rec.StorageFailed("delete")
		return storageError(err)
	}
	m.rec.SessionEnded(EndRevoke)
	return nil
}

// Count returns the number of live sessions in the backend.
func (m *SessionManager) Count(ctx context.Context) (int, error) {
	n, err := m.backend.Count(ctx)
	if err != nil {
		m.rec.StorageFailed("count")
		return 0, storageError(err)
	}
	return n, nil
}
