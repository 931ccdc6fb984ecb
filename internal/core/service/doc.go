// Package service holds the tokguard domain services.
//
//   - TokenGuard: CSRF token issuance, rendering and verification on top
//     of a SessionStore
//   - SessionManager: per-request sessions over a SessionBackend; its
//     RequestSession is the production SessionStore
//
// Collaborators are interfaces defined here so storage and transport
// packages depend on service, not the other way round.
package service
