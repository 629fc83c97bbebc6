package handlers

import (
	"net/http"
	"time"

	httpContracts "github.com/propflow/propflow/internal/http"
)

// Version is stamped by the build; surfaced on /health.
var Version = "dev"

// Health handles GET /health endpoint
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response := httpContracts.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   Version,
	}
	if h.BreakerState != nil {
		response.Breaker = h.BreakerState()
		if response.Breaker == "open" {
			response.Status = "degraded"
		}
	}
	if h.StoreHealth != nil {
		if err := h.StoreHealth.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Store = "unreachable"
		} else {
			response.Store = "ok"
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}
