package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
	"github.com/yndnr/tokguard-go/pkg/token"
)

// Status handles GET /admin/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.ActiveSessions(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:         "running",
		Build:          buildinfo.Get(),
		Backend:        h.backend.Name(),
		ActiveSessions: n,
		UptimeSeconds:  int64(time.Since(h.started).Seconds()),
		LogLevel:       logger.GetLevel(),
	})
}

// GetSession handles GET /admin/v1/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.admin.Inspect(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, info)
}

// RotateSessionToken handles POST /admin/v1/sessions/{id}/rotate.
func (h *Handler) RotateSessionToken(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	info, err := h.admin.RotateToken(r.Context(), id)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	h.logger.WithContext(r.Context()).Info("session token rotated by operator",
		"session_id", id, "fingerprint", info.TokenFingerprint)
	h.writeJSON(w, r, http.StatusOK, info)
}

// RevokeSession handles DELETE /admin/v1/sessions/{id}.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.admin.Revoke(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	h.logger.WithContext(r.Context()).Info("session revoked by operator", "session_id", id)
	h.writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "revoked": true})
}

// GenerateToken handles POST /admin/v1/tokens/generate. The token is not
// bound to any session.
func (h *Handler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.admin.GenerateToken()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, GenerateTokenResponse{
		Token:       tok,
		Fingerprint: token.Fingerprint(tok),
	})
}
