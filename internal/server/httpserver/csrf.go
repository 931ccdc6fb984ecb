package httpserver

import (
	"net/http"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
)

// CSRFConfig configures where submitted tokens are looked for.
type CSRFConfig struct {
	// HeaderName is checked after the form field. Empty disables it.
	HeaderName string
	// AllowQuery also accepts the token from the query string on unsafe
	// methods.
	AllowQuery bool
}

// CSRF protects unsafe methods with the session token. Safe methods make
// sure a token exists so pages can render it. It must run inside Sessions.
func CSRF(guard *service.TokenGuard, cfg CSRFConfig, log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rs := service.FromContext(r.Context())
			if rs == nil {
				handler.WriteDomainError(w, r, domain.ErrInternal.WithDetails("csrf middleware without session"))
				return
			}
			g := guard.Bind(rs)

			if isSafeMethod(r.Method) {
				if err := g.EnsureSession(); err != nil {
					handler.WriteDomainError(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			has, err := rs.Has(domain.TokenSessionKey)
			if err != nil {
				handler.WriteDomainError(w, r, err)
				return
			}

			source, err := verifySource(g, cfg, r, has)
			if err != nil {
				handler.WriteDomainError(w, r, err)
				return
			}
			if source == "" {
				reason := "mismatch"
				if !has {
					reason = "no session token"
				}
				log.WithContext(r.Context()).Warn("csrf verification failed",
					"method", r.Method, "path", r.URL.Path,
					"reason", reason, "client_ip", getClientIP(r))
				handler.WriteDomainError(w, r, domain.ErrVerificationFailed)
				return
			}

			log.WithContext(r.Context()).Debug("csrf token accepted", "source", source)
			next.ServeHTTP(w, r)
		})
	}
}

// verifySource returns where a valid token was found, or "". A store
// failure ends the search with an error.
func verifySource(g *service.TokenGuard, cfg CSRFConfig, r *http.Request, has bool) (string, error) {
	if !has {
		return "", nil
	}
	acc := handler.NewAccessor(r)
	if ok, err := g.CheckPost(acc); err != nil || ok {
		return "form", err
	}
	if cfg.HeaderName != "" {
		if v := r.Header.Get(cfg.HeaderName); v != "" {
			if ok, err := g.CheckPostSubmission(v); err != nil || ok {
				return "header", err
			}
		}
	}
	if cfg.AllowQuery {
		if ok, err := g.CheckGet(acc); err != nil || ok {
			return "query", err
		}
	}
	return "", nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
