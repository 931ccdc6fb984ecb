// Package tlsroots loads TLS material for the server and its clients.
//
//   - roots.go: CA pools for outbound connections (Redis, admin CLI)
//   - reloader.go: server certificate hot reload via fsnotify
package tlsroots
