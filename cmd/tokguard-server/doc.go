// Package main provides the entry point for tokguard-server.
//
// The server hosts CSRF-protected browser pages backed by server-side
// sessions, an operator API under /admin/v1 and health/metrics probes.
//
// Usage:
//
//	tokguard-server serve --config /etc/tokguard/server.yaml
//	tokguard-server check-config --config /etc/tokguard/server.yaml
//	tokguard-server version
package main
