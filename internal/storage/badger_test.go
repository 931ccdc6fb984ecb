package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tokguard-go/internal/core/domain"
)

func newTestSession(t *testing.T) *domain.Session {
	t.Helper()
	sess, err := domain.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	sess.Values[domain.TokenSessionKey] = "tok"
	return sess
}

func newDiskStore(t *testing.T) *BadgerStore {
	t.Helper()

	dir, err := os.MkdirTemp("", "tokguard-badger-*")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfg := DefaultBadgerConfig()
	cfg.Dir = dir
	cfg.GCInterval = 0
	cfg.CacheSize = 1 << 20
	cfg.ValueLogFileSize = 1 << 20

	store, err := NewBadgerStore(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore_SaveLoadDelete(t *testing.T) {
	store, err := NewBadgerInMemory(nil, nil)
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error = %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	sess := newTestSession(t)
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Values[domain.TokenSessionKey] != "tok" {
		t.Errorf("Load() values = %v", got.Values)
	}

	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Load() after delete error = %v", err)
	}
	if err := store.Delete(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Delete() twice error = %v", err)
	}
}

func TestBadgerStore_TTL(t *testing.T) {
	store, err := NewBadgerInMemory(nil, nil)
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error = %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	sess := newTestSession(t)
	// Badger TTLs have one-second resolution.
	if err := store.Save(ctx, sess, time.Second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(2100 * time.Millisecond)

	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Load() expired error = %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestBadgerStore_Persistence(t *testing.T) {
	dir, err := os.MkdirTemp("", "tokguard-badger-*")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := DefaultBadgerConfig()
	cfg.Dir = dir
	cfg.GCInterval = 0
	ctx := context.Background()
	sess := newTestSession(t)

	first, err := NewBadgerStore(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	first.Save(ctx, sess, time.Hour)
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewBadgerStore(cfg, nil, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()

	if _, err := second.Load(ctx, sess.ID); err != nil {
		t.Errorf("Load() after reopen error = %v", err)
	}
}

func TestBadgerStore_Sealed(t *testing.T) {
	c, err := newCodec("super-secret")
	if err != nil {
		t.Fatalf("newCodec() error = %v", err)
	}
	store, err := NewBadgerInMemory(c, nil)
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error = %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	sess := newTestSession(t)
	sess.Values[domain.TokenSessionKey] = "plaintext-token-value"
	store.Save(ctx, sess, time.Hour)

	var raw []byte
	store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sess.ID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if len(raw) == 0 || bytes.Contains(raw, []byte("plaintext-token-value")) {
		t.Error("stored record is not sealed")
	}

	got, err := store.Load(ctx, sess.ID)
	if err != nil || got.Values[domain.TokenSessionKey] != "plaintext-token-value" {
		t.Errorf("Load() = %v, %v", got, err)
	}
}

func TestBadgerStore_GCAndCollectors(t *testing.T) {
	store := newDiskStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		store.Save(ctx, newTestSession(t), time.Hour)
	}

	if _, err := store.GC(); err != nil {
		t.Errorf("GC() error = %v", err)
	}
	if store.lastGC.Load() == 0 {
		t.Error("GC() did not record its run time")
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(prometheus.Collector(collectorSet(store.Collectors()))); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 4 {
		t.Errorf("metric families = %d, want 4", len(families))
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	store, _ := NewBadgerInMemory(nil, nil)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := store.Load(ctx, "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() error = %v", err)
	}
	if err := store.Save(ctx, newTestSession(t), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Save() error = %v", err)
	}
}

func TestNewBadgerStore_RequiresDir(t *testing.T) {
	if _, err := NewBadgerStore(BadgerConfig{}, nil, nil); err == nil {
		t.Error("NewBadgerStore() without dir should fail")
	}
}

// collectorSet registers several collectors as one.
type collectorSet []prometheus.Collector

func (cs collectorSet) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range cs {
		c.Describe(ch)
	}
}

func (cs collectorSet) Collect(ch chan<- prometheus.Metric) {
	for _, c := range cs {
		c.Collect(ch)
	}
}
