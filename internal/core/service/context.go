package service

import "context"

type sessionKey struct{}

// NewContext returns ctx carrying the request's session.
func NewContext(ctx context.Context, s *RequestSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the request's session, or nil outside session
// middleware.
func FromContext(ctx context.Context) *RequestSession {
	s, _ := ctx.Value(sessionKey{}).(*RequestSession)
	return s
}
