package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/domain"
)

const readyTimeout = 2 * time.Second

// Health handles GET /health. It answers while the process is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. It fails while the session backend is
// unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		h.logger.WithContext(r.Context()).Warn("readiness check failed",
			"backend", h.backend.Name(), "error", err)
		WriteError(w, r, http.StatusServiceUnavailable,
			domain.ErrStorageUnavailable.Code, "not ready",
			HealthResponse{
				Status: "unavailable",
				Time:   time.Now().UTC().Format(time.RFC3339),
				Reason: h.backend.Name() + " backend unreachable",
			})
		return
	}

	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
