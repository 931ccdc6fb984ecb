package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionCounter reports how many live sessions a backend holds.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// SessionCollector samples a SessionCounter on each scrape.
type SessionCollector struct {
	counter SessionCounter
	backend string
	timeout time.Duration
	desc    *prometheus.Desc
}

// NewSessionCollector creates a collector for the given backend.
func NewSessionCollector(counter SessionCounter, backend string) *SessionCollector {
	return &SessionCollector{
		counter: counter,
		backend: backend,
		timeout: 2 * time.Second,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "active"),
			"Live sessions held by the storage backend.",
			nil, prometheus.Labels{"backend": backend},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. A failed count is skipped
// rather than reported as zero.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.counter.Count(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n))
}
