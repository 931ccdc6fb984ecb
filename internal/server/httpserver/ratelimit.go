package httpserver

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
	"github.com/yndnr/tokguard-go/pkg/cmap"
)

const (
	limiterIdleTTL       = 5 * time.Minute
	limiterSweepInterval = time.Minute
)

// RejectCounter is told about every rejected request.
type RejectCounter interface {
	RateLimited()
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// IPLimiter keeps a token bucket per client address. Buckets idle for
// longer than limiterIdleTTL are dropped.
type IPLimiter struct {
	rps     rate.Limit
	burst   int
	clients *cmap.Map[string, *clientLimiter]

	lastSweep atomic.Int64
	now       func() time.Time
}

// NewIPLimiter creates a limiter allowing rps requests per second with the
// given burst per client.
func NewIPLimiter(rps float64, burst int) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &IPLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: cmap.New[string, *clientLimiter](),
		now:     time.Now,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// Allow reports whether ip may make a request now.
func (l *IPLimiter) Allow(ip string) bool {
	now := l.now()
	var c *clientLimiter
	l.clients.Update(ip, func(v *clientLimiter, exists bool) (*clientLimiter, bool) {
		if !exists {
			v = &clientLimiter{lim: rate.NewLimiter(l.rps, l.burst)}
		}
		c = v
		return v, true
	})
	c.lastSeen.Store(now.UnixNano())

	l.maybeSweep(now)
	return c.lim.AllowN(now, 1)
}

// Clients returns the number of tracked client addresses.
func (l *IPLimiter) Clients() int {
	return l.clients.Count()
}

func (l *IPLimiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(limiterSweepInterval) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-limiterIdleTTL).UnixNano()
	l.clients.DeleteIf(func(_ string, c *clientLimiter) bool {
		return c.lastSeen.Load() < cutoff
	})
}

// RateLimit rejects clients over their budget with 429. rc may be nil.
func RateLimit(l *IPLimiter, rc RejectCounter, log logger.Logger) Middleware {
	retryAfter := "1"
	if l.rps > 0 && l.rps < 1 {
		retryAfter = strconv.Itoa(int(1/float64(l.rps)) + 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if l.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			if rc != nil {
				rc.RateLimited()
			}
			log.WithContext(r.Context()).Debug("request rate limited", "client_ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", retryAfter)
			handler.WriteError(w, r, http.StatusTooManyRequests,
				domain.ErrRateLimited.Code, domain.ErrRateLimited.Message, nil)
		})
	}
}
