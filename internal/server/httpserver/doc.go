// Package httpserver provides the HTTP/HTTPS server for tokguard.
//
// Routes fall into three groups:
//
//   - Browser pages: /, /submit, /action, /login, /logout. These run
//     behind the Sessions and CSRF middleware.
//   - Admin endpoints: /admin/v1/*, behind NetworkACL and AdminAuth.
//   - Probes: /health, /ready and optionally /metrics.
//
// Every route shares the outer chain Recover, RequestID, Tracing,
// AccessLog and RateLimit. TLS certificates are reloaded from disk when
// they change.
package httpserver
