package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/internal/tokens"
	"github.com/tutorhub/tutor-server/pkg/logger"
	"github.com/tutorhub/tutor-server/pkg/middleware"
)

// me returns the caller's stored profile, or the bare principal when no
// profile store is configured.
func (h *Handler) me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	if h.users == nil {
		c.JSON(http.StatusOK, gin.H{"principal": p})
		return
	}
	profile, err := h.users.UpsertFromPrincipal(c.Request.Context(), p)
	if err != nil {
		logger.Errorf("upsert profile for %s: %v", p.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"principal": p})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// logout revokes the presented token until it would have expired anyway.
func (h *Handler) logout(c *gin.Context) {
	if h.revocations == nil {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}
	ttl := h.tokenTTL
	if v, ok := c.Get(middleware.ContextClaims); ok {
		if claims, ok := v.(map[string]interface{}); ok {
			if exp := tokens.ExpiresAt(claims); !exp.IsZero() {
				ttl = time.Until(exp)
			}
		}
	}
	if err := h.revocations.Revoke(c.Request.Context(), c.GetString(middleware.ContextToken), ttl); err != nil {
		logger.Errorf("revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
