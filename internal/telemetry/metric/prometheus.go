package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokguard"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	TokensIssued     *prometheus.CounterVec
	Verifications    *prometheus.CounterVec
	StorageErrors    *prometheus.CounterVec
	SessionsStarted  *prometheus.CounterVec
	SessionsEnded    *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RateLimitRejects prometheus.Counter
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus the application metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg: reg,
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "csrf",
			Name:      "tokens_issued_total",
			Help:      "CSRF tokens written to a session, by reason.",
		}, []string{"reason"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "csrf",
			Name:      "verifications_total",
			Help:      "CSRF token checks, by submission path and outcome.",
		}, []string{"path", "outcome"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Session storage failures, by operation.",
		}, []string{"op"}),
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Sessions opened for a request, by whether they were new.",
		}, []string{"new"}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Sessions destroyed or renewed, by reason.",
		}, []string{"reason"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		r.TokensIssued, r.Verifications, r.StorageErrors,
		r.SessionsStarted, r.SessionsEnded,
		r.RequestsTotal, r.RequestDuration, r.RateLimitRejects,
	)
	return r
}

// Register adds extra collectors, such as storage gauges.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// TokenIssued counts a token written to a session.
func (r *Registry) TokenIssued(reason string) {
	r.TokensIssued.WithLabelValues(reason).Inc()
}

// TokenVerified counts a verification outcome.
func (r *Registry) TokenVerified(path, outcome string) {
	r.Verifications.WithLabelValues(path, outcome).Inc()
}

// StorageFailed counts a storage failure.
func (r *Registry) StorageFailed(op string) {
	r.StorageErrors.WithLabelValues(op).Inc()
}

// SessionStarted counts a session opened for a request.
func (r *Registry) SessionStarted(isNew bool) {
	r.SessionsStarted.WithLabelValues(strconv.FormatBool(isNew)).Inc()
}

// SessionEnded counts a destroyed or renewed session.
func (r *Registry) SessionEnded(reason string) {
	r.SessionsEnded.WithLabelValues(reason).Inc()
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RateLimited counts a rejected request.
func (r *Registry) RateLimited() {
	r.RateLimitRejects.Inc()
}
