package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	upstreamDegraded func() bool
}

func NewHealthHandler(upstreamDegraded func() bool) *HealthHandler {
	return &HealthHandler{
		upstreamDegraded: upstreamDegraded,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	// Degraded means the marketplace circuit is open; the service still
	// serves open dialogs from memory.
	if h.upstreamDegraded != nil && h.upstreamDegraded() {
		c.JSON(http.StatusOK, gin.H{
			"status": "degraded",
			"reason": "marketplace circuit open",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
