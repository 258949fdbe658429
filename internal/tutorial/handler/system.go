package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/pkg/logger"
)

func (h *Handler) root(c *gin.Context) {
	c.String(http.StatusOK, "tutor-server running")
}

func (h *Handler) health(c *gin.Context) {
	c.String(http.StatusOK, "healthy")
}

// ready returns 200 only when the tutorial store answers a ping.
func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]bool{
		"store":    true,
		"identity": h.verifier != nil,
		"covers":   h.covers != nil,
	}
	if err := h.svc.Ping(ctx); err != nil {
		logger.Warnf("readiness: store ping failed: %v", err)
		deps["store"] = false
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(h.started).String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(h.started).String()})
}
