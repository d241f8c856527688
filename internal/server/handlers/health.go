package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/server/response"
)

// readyTimeout bounds the readiness check.
const readyTimeout = 2 * time.Second

// HandleHealth handles GET /api/v1/health.
// @Summary Health check
// @Description Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "servicemap-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready.
// @Summary Readiness check
// @Description Readiness probe including catalog connectivity and cache status
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Readiness check failed")
			response.ServiceUnavailable(w, err.Error())
			return
		}
	}

	status := map[string]any{
		"status":         "ready",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"threshold":      h.client.Threshold(),
	}
	if sr, ok := h.cache.(cache.StatsReporter); ok {
		status["cache"] = sr.Stats(r.Context())
	}
	if h.wsHub != nil {
		status["websocket_clients"] = h.wsHub.ClientCount()
	}
	if h.sseBroadcaster != nil {
		status["sse_clients"] = h.sseBroadcaster.ClientCount()
	}
	response.OK(w, status)
}
