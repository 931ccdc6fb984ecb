package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
)

// Backend is what the handlers need from the session storage.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
}

// Config wires the handler dependencies.
type Config struct {
	Sessions *service.SessionManager
	Guard    *service.TokenGuard
	Admin    *service.AdminService
	Backend  Backend
	Logger   logger.Logger
}

// Handler serves the tokguard endpoints.
type Handler struct {
	sessions *service.SessionManager
	guard    *service.TokenGuard
	admin    *service.AdminService
	backend  Backend
	logger   logger.Logger
	started  time.Time
}

// New creates a Handler.
func New(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		sessions: cfg.Sessions,
		guard:    cfg.Guard,
		admin:    cfg.Admin,
		backend:  cfg.Backend,
		logger:   log,
		started:  time.Now(),
	}
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := NewResponse(logger.RequestIDFromContext(r.Context()), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}

// WriteError writes an error envelope. Middleware uses it too.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	resp := NewErrorResponse(logger.RequestIDFromContext(r.Context()), code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteDomainError maps err to a status and writes it. Errors outside the
// domain taxonomy are logged and reported as internal.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(r.Context()).Error("internal error", "error", err)
		de = domain.ErrInternal
	}
	if de.Code == domain.ErrStorageUnavailable.Code || de.Code == domain.ErrInternal.Code {
		logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
	}
	WriteError(w, r, StatusForCode(de.Code), de.Code, de.Message, detailsOf(de))
}

func detailsOf(de *domain.DomainError) any {
	if de.Details == "" {
		return nil
	}
	return de.Details
}

// StatusForCode maps an error code to an HTTP status by its numeric suffix.
func StatusForCode(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
