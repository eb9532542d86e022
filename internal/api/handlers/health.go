package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mb-events/server/internal/api/respond"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	pool *pgxpool.Pool
}

func NewHealthHandler(pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Healthz reports process liveness. It never touches dependencies.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Readyz reports readiness to serve traffic by pinging the database.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.pool == nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	if err := h.pool.Ping(ctx); err != nil {
		respond.Error(w, r, http.StatusServiceUnavailable, "database unreachable", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
