package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
)

func newSession(t *testing.T) *domain.Session {
	t.Helper()
	sess, err := domain.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	sess.Values[domain.TokenSessionKey] = "tok"
	return sess
}

func TestStore_SaveLoadDelete(t *testing.T) {
	store := New(WithSweepInterval(0))
	defer store.Close()
	ctx := context.Background()

	sess := newSession(t)
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Values[domain.TokenSessionKey] != "tok" {
		t.Fatalf("Load values = %v", got.Values)
	}

	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Load after delete error = %v", err)
	}
	if err := store.Delete(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("second Delete error = %v", err)
	}
}

func TestStore_CopiesOnReadAndWrite(t *testing.T) {
	store := New(WithSweepInterval(0))
	defer store.Close()
	ctx := context.Background()

	sess := newSession(t)
	store.Save(ctx, sess, 0)
	sess.Values[domain.TokenSessionKey] = "changed"

	got, _ := store.Load(ctx, sess.ID)
	if got.Values[domain.TokenSessionKey] != "tok" {
		t.Fatal("Save did not copy the session")
	}

	got.Values[domain.TokenSessionKey] = "changed"
	again, _ := store.Load(ctx, sess.ID)
	if again.Values[domain.TokenSessionKey] != "tok" {
		t.Fatal("Load did not copy the session")
	}
}

func TestStore_Expiry(t *testing.T) {
	store := New(WithSweepInterval(0))
	defer store.Close()
	ctx := context.Background()

	live := newSession(t)
	dead := newSession(t)
	store.Save(ctx, live, time.Hour)
	store.Save(ctx, dead, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Load(ctx, dead.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Load(expired) error = %v", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if _, err := store.Load(ctx, live.ID); err != nil {
		t.Fatalf("Load(live) error = %v", err)
	}
}

func TestStore_SweeperRuns(t *testing.T) {
	store := New(WithSweepInterval(5 * time.Millisecond))
	ctx := context.Background()

	store.Save(ctx, newSession(t), time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for store.sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not purge the expired record")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestStore_Concurrent(t *testing.T) {
	store := New(WithShards(4), WithSweepInterval(0))
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, _ := domain.NewSession()
			store.Save(ctx, sess, time.Minute)
			store.Load(ctx, sess.ID)
		}()
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 50 {
		t.Fatalf("Count = %d, want 50", n)
	}
}
