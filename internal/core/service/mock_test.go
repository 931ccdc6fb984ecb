package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
)

// mapStore is an in-memory SessionStore.
type mapStore struct {
	values map[string]string
	sets   int
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (m *mapStore) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStore) Set(key, value string) error {
	m.values[key] = value
	m.sets++
	return nil
}

func (m *mapStore) Remove(key string) error {
	delete(m.values, key)
	return nil
}

func (m *mapStore) Has(key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

// failingStore fails every operation.
type failingStore struct {
	err error
}

func (f failingStore) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(string, string) error         { return f.err }
func (f failingStore) Remove(string) error              { return f.err }
func (f failingStore) Has(string) (bool, error)         { return false, f.err }

// readOnlyStore reads from values but fails writes.
type readOnlyStore struct {
	*mapStore
}

func (r readOnlyStore) Set(string, string) error { return errors.New("read-only") }

// mockRequest is a RequestAccessor over two maps.
type mockRequest struct {
	post  map[string]string
	query map[string]string
}

func (r mockRequest) PostParam(name string) (string, bool) {
	v, ok := r.post[name]
	return v, ok
}

func (r mockRequest) QueryParam(name string) (string, bool) {
	v, ok := r.query[name]
	return v, ok
}

// mockBackend is an in-memory SessionBackend with error injection.
type mockBackend struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	ttls     map[string]time.Duration
	err      error
	saves    int
	deletes  int
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		sessions: make(map[string]*domain.Session),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *mockBackend) Load(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockBackend) Save(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions[sess.ID] = sess.Clone()
	m.ttls[sess.ID] = ttl
	m.saves++
	return nil
}

func (m *mockBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.deletes++
	return nil
}

func (m *mockBackend) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.sessions), nil
}

func (m *mockBackend) Close() error { return nil }

// countingRecorder tallies Recorder calls by label.
type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[string]int)}
}

func (c *countingRecorder) add(key string) {
	c.mu.Lock()
	c.counts[key]++
	c.mu.Unlock()
}

func (c *countingRecorder) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

func (c *countingRecorder) TokenIssued(reason string)          { c.add("issued:" + reason) }
func (c *countingRecorder) TokenVerified(path, outcome string) { c.add("verify:" + path + ":" + outcome) }
func (c *countingRecorder) StorageFailed(op string)            { c.add("storage:" + op) }
func (c *countingRecorder) SessionEnded(reason string)         { c.add("ended:" + reason) }
func (c *countingRecorder) SessionStarted(isNew bool) {
	if isNew {
		c.add("started:new")
	} else {
		c.add("started:existing")
	}
}
