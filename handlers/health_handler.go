package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Dosada05/team-roster/middleware"
	"github.com/Dosada05/team-roster/services"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		services.LogError(r.Context(), middleware.LoggerFromContext(r.Context()), err,
			"database ping failed", "HealthHandler.Health")
		errorResponse(w, r, http.StatusServiceUnavailable, "Service unavailable.")
		return
	}
	writeEnvelope(w, r, http.StatusOK, jsonResponse{"status": "ok"})
}
