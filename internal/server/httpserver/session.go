package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "lax", "strict" or "none" to its http.SameSite value.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite mode %q", s)
	}
}

// Sessions loads the request session from the cookie and stores it in the
// request context. The response is buffered so the session can be
// committed before anything reaches the client; a failed commit replaces
// the response with a 503.
func Sessions(m *service.SessionManager, cookie CookieConfig, log logger.Logger) Middleware {
	if cookie.Path == "" {
		cookie.Path = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cookie.Name); err == nil {
				id = c.Value
			}

			rs, err := m.Start(r.Context(), id)
			if err != nil {
				handler.WriteDomainError(w, r, err)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r.WithContext(service.NewContext(r.Context(), rs)))

			if err := m.Commit(r.Context(), rs); err != nil {
				log.WithContext(r.Context()).Error("session commit failed",
					"session_id", rs.ID(), "error", err)
				w.Header().Del("Location")
				w.Header().Del("Content-Length")
				handler.WriteDomainError(w, r, err)
				return
			}

			switch {
			case rs.Destroyed():
				if id != "" {
					http.SetCookie(w, cookie.expired())
				}
			case rs.Persisted():
				http.SetCookie(w, cookie.issue(rs.ID(), m.TTL()))
			}
			w.Header().Add("Vary", "Cookie")
			bw.flush()
		})
	}
}

func (c CookieConfig) base() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	}
}

func (c CookieConfig) issue(id string, ttl time.Duration) *http.Cookie {
	ck := c.base()
	ck.Value = id
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
		ck.Expires = time.Now().Add(ttl).UTC()
	}
	return ck
}

func (c CookieConfig) expired() *http.Cookie {
	ck := c.base()
	ck.MaxAge = -1
	ck.Expires = time.Unix(1, 0)
	return ck
}

// bufferedWriter holds the status and body until flush. Headers go straight
// to the underlying writer's map.
type bufferedWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(b)
}

func (w *bufferedWriter) flush() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.ResponseWriter.WriteHeader(w.status)
	w.buf.WriteTo(w.ResponseWriter)
}
