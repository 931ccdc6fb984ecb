package service

import (
	"context"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
)

// SessionStore is the per-visitor key/value map a TokenGuard works on.
// Implementations fail with domain.ErrStorageUnavailable when they cannot
// be read or written.
type SessionStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Has(key string) (bool, error)
}

// RequestAccessor gives read-only access to submitted parameters.
type RequestAccessor interface {
	PostParam(name string) (string, bool)
	QueryParam(name string) (string, bool)
}

// SessionBackend persists session records between requests.
// Load returns domain.ErrSessionNotFound for unknown or expired ids.
type SessionBackend interface {
	Load(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Recorder receives service-level metrics.
type Recorder interface {
	TokenIssued(reason string)
	TokenVerified(path, outcome string)
	StorageFailed(op string)
	SessionStarted(isNew bool)
	SessionEnded(reason string)
}

type nopRecorder struct{}

func (nopRecorder) TokenIssued(string)           {}
func (nopRecorder) TokenVerified(string, string) {}
func (nopRecorder) StorageFailed(string)         {}
func (nopRecorder) SessionStarted(bool)          {}
func (nopRecorder) SessionEnded(string)          {}
