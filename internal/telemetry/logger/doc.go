// Package logger provides structured logging for tokguard.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, handler setup, dynamic level
//   - context.go: request id and trace id propagation
//   - redact.go: masking of tokens, cookies and credentials
package logger
