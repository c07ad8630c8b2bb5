package handlers

import (
	"net/http"
	"time"

	"github.com/finbridge/market-data-gateway/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	cachePing func() error
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. cachePing may be nil when no
// cache backend is configured.
func NewHealthHandler(cachePing func() error, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cachePing: cachePing, logger: logger}
}

// HandleHealth handles GET /health
// Always returns 200 if the process is serving; the cache check is
// advisory because the gateway degrades to uncached fetches without it.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.cachePing != nil {
		checks := map[string]string{"cache": "healthy"}
		if err := h.cachePing(); err != nil {
			h.logger.Warn("cache health check failed", zap.Error(err))
			checks["cache"] = "unhealthy"
		}
		response.Checks = checks
	}

	_ = utils.WriteJSON(w, http.StatusOK, response)
}
