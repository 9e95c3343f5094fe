package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency the health check probes, e.g. the wizard's Redis.
type Pinger func(ctx context.Context) error

// HealthHandler answers liveness probes.
type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck handles GET /health. Any failing dependency turns the answer into a 503.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	response := map[string]string{"status": "ok"}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			response["status"] = "degraded"
			response[name] = err.Error()
			continue
		}
		response[name] = "ok"
	}
	writeJSON(w, status, response)
}
