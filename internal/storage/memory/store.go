package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/pkg/cmap"
)

// DefaultSweepInterval is how often expired records are purged.
const DefaultSweepInterval = time.Minute

type entry struct {
	sess     *domain.Session
	deadline int64 // Unix ms, 0 = none
}

func (e entry) expired(now int64) bool {
	return e.deadline != 0 && now > e.deadline
}

// Store is an in-memory session backend.
type Store struct {
	sessions *cmap.Map[string, entry]
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures the Store.
type Option func(*Store)

// WithSweepInterval sets the purge interval. Zero or negative disables
// the sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.interval = d
	}
}

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.sessions = cmap.NewWithShards[string, entry](n)
	}
}

// New creates a store and starts its sweeper.
func New(opts ...Option) *Store {
	s := &Store{
		sessions: cmap.New[string, entry](),
		interval: DefaultSweepInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.interval > 0 {
		go s.sweepLoop()
	} else {
		close(s.doneCh)
	}
	return s
}

// Load returns a copy of the stored session.
func (s *Store) Load(_ context.Context, id string) (*domain.Session, error) {
	e, ok := s.sessions.Get(id)
	if !ok || e.expired(time.Now().UnixMilli()) {
		return nil, domain.ErrSessionNotFound
	}
	return e.sess.Clone(), nil
}

// Save stores a copy of sess for ttl. A non-positive ttl never expires.
func (s *Store) Save(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	e := entry{sess: sess.Clone()}
	if ttl > 0 {
		e.deadline = time.Now().Add(ttl).UnixMilli()
	}
	s.sessions.Set(sess.ID, e)
	return nil
}

// Delete removes a session.
func (s *Store) Delete(_ context.Context, id string) error {
	e, ok := s.sessions.Pop(id)
	if !ok || e.expired(time.Now().UnixMilli()) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Count returns the number of live sessions.
func (s *Store) Count(_ context.Context) (int, error) {
	now := time.Now().UnixMilli()
	n := 0
	s.sessions.Range(func(_ string, e entry) bool {
		if !e.expired(now) {
			n++
		}
		return true
	})
	return n, nil
}

// Sweep removes expired records and returns how many were dropped.
func (s *Store) Sweep() int {
	now := time.Now().UnixMilli()
	return s.sessions.DeleteIf(func(_ string, e entry) bool {
		return e.expired(now)
	})
}

// Close stops the sweeper. Stored records are kept until the Store is
// garbage collected.
func (s *Store) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
	return nil
}

func (s *Store) sweepLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}
