// Package config defines the tokguard-server configuration.
//
//   - spec.go: the ServerConfig tree and koanf keys
//   - default.go: defaults
//   - verify.go: validation run before anything starts
//   - sanitize.go: a copy safe to log
//
// Loading is done by internal/infra/confloader.
package config
