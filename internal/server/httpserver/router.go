package httpserver

import (
	"errors"
	"net/http"

	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
	"github.com/yndnr/tokguard-go/internal/telemetry/metric"
)

// AdminConfig controls the /admin/v1 routes.
type AdminConfig struct {
	Enabled         bool
	APIKey          string
	AllowedNetworks []string
}

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler  *handler.Handler
	Sessions *service.SessionManager
	Guard    *service.TokenGuard
	Logger   logger.Logger

	Cookie CookieConfig
	CSRF   CSRFConfig
	Admin  AdminConfig

	// Metrics feeds request metrics. /metrics is served at MetricsPath
	// when both are set.
	Metrics     *metric.Registry
	MetricsPath string

	// Limiter enables per-client rate limiting when set.
	Limiter *IPLimiter

	// TrustedProxies lists the peers whose forwarding headers are
	// believed. Empty means the peer address is the client.
	TrustedProxies []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Handler == nil || cfg.Sessions == nil || cfg.Guard == nil {
		return nil, errors.New("httpserver: handler, sessions and guard are required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	h := cfg.Handler

	mux := http.NewServeMux()
	handle := func(pattern string, hf http.HandlerFunc, mws ...Middleware) {
		mux.Handle(pattern, matched(Chain(hf, mws...)))
	}

	// Probes
	handle("GET /health", h.Health)
	handle("GET /ready", h.Ready)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, matched(cfg.Metrics.Handler()))
	}

	// Browser pages
	browser := []Middleware{
		Sessions(cfg.Sessions, cfg.Cookie, log),
		CSRF(cfg.Guard, cfg.CSRF, log),
	}
	handle("GET /{$}", h.Index, browser...)
	handle("POST /submit", h.Submit, browser...)
	handle("GET /action", h.Action, browser...)
	handle("POST /login", h.Login, browser...)
	handle("POST /logout", h.Logout, browser...)

	// Admin API
	if cfg.Admin.Enabled {
		if cfg.Admin.APIKey == "" {
			return nil, errors.New("httpserver: admin API enabled without an API key")
		}
		acl, err := NetworkACL(cfg.Admin.AllowedNetworks, log)
		if err != nil {
			return nil, err
		}
		admin := []Middleware{acl, AdminAuth(cfg.Admin.APIKey, log)}

		handle("GET /admin/v1/status", h.Status, admin...)
		handle("GET /admin/v1/sessions/{id}", h.GetSession, admin...)
		handle("POST /admin/v1/sessions/{id}/rotate", h.RotateSessionToken, admin...)
		handle("DELETE /admin/v1/sessions/{id}", h.RevokeSession, admin...)
		handle("POST /admin/v1/tokens/generate", h.GenerateToken, admin...)
	}

	clientIP, err := ClientIP(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	outer := []Middleware{Recover(log), clientIP, RequestID(), Tracing()}
	if cfg.Metrics != nil {
		outer = append(outer, AccessLog(log, cfg.Metrics))
	} else {
		outer = append(outer, AccessLog(log, nil))
	}
	if cfg.Limiter != nil {
		var rc RejectCounter
		if cfg.Metrics != nil {
			rc = cfg.Metrics
		}
		outer = append(outer, RateLimit(cfg.Limiter, rc, log))
	}

	return Chain(mux, outer...), nil
}
