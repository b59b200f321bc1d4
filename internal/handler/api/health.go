package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/deltamc/internal/handler"
	"github.com/dukerupert/deltamc/internal/middleware"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db  Pinger
	now func() time.Time
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Check handles GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "OK", Timestamp: h.now().UTC().Format(time.RFC3339)}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			middleware.GetLogger(r.Context()).Error("health check failed", "error", err)
			resp.Status = "ERROR"
			handler.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	handler.WriteJSON(w, http.StatusOK, resp)
}
