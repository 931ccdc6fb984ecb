package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/storage/memory"
	"github.com/yndnr/tokguard-go/pkg/token"
)

// SessionCounts defines the session counts for scaling benchmarks.
var SessionCounts = []int{5000, 10000, 50000, 100000, 500000}

// SmallSessionCounts for quick benchmarks.
var SmallSessionCounts = []int{1000, 5000, 10000}

// createSession creates a session that already carries a CSRF token.
func createSession(b *testing.B) *domain.Session {
	b.Helper()
	sess, err := domain.NewSession()
	if err != nil {
		b.Fatalf("NewSession failed: %v", err)
	}
	tok, err := token.Generate()
	if err != nil {
		b.Fatalf("Generate failed: %v", err)
	}
	sess.Values[domain.TokenSessionKey] = tok
	sess.Values["user"] = "bench-user"
	sess.Touch(time.Hour)
	return sess
}

// prefillStore saves count sessions into store.
func prefillStore(b *testing.B, ctx context.Context, store *memory.Store, count int) []*domain.Session {
	b.Helper()
	sessions := make([]*domain.Session, count)
	for i := range sessions {
		sessions[i] = createSession(b)
		if err := store.Save(ctx, sessions[i], time.Hour); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
	return sessions
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithSessionCounts runs benchFn once per session count.
func runWithSessionCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("sessions_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
