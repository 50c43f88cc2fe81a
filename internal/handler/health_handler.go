package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"helix/internal/port"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	processor port.ProcessorClient
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(processor port.ProcessorClient) *HealthHandler {
	return &HealthHandler{processor: processor}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The console is only useful while the
// processor accepts uploads, so an unreachable processor fails the probe.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	checks := gin.H{"processor": "ok"}
	if err := h.processor.Ping(ctx); err != nil {
		zap.L().Warn("readiness: processor unreachable", zap.Error(err))
		checks["processor"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
