// Package metric provides Prometheus metrics for tokguard.
//
// Registry owns a private prometheus.Registry with token, session,
// storage and HTTP metrics, and serves it on /metrics.
package metric
