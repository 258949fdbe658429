package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/pkg/logger"
)

// ErrResourceNotFound tells RequireOwner the target is absent. The request then
// continues so the handler can produce its own zero-effect result.
var ErrResourceNotFound = errors.New("resource not found")

// LookupError lets an OwnerLookup choose the response for an unresolvable id.
type LookupError struct {
	Status  int
	Message string
}

func (e *LookupError) Error() string { return e.Message }

// OwnerLookup resolves the owner email of the resource named by id.
type OwnerLookup func(ctx context.Context, id string) (string, error)

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
}

// OwnershipGuard allows the request only when path parameter param equals the
// principal's email (case-sensitive). It must run after AuthMiddleware.
func OwnershipGuard(param string) gin.HandlerFunc {
	if param == "" {
		param = "email"
	}
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			unauthorized(c, "no_principal")
			return
		}
		if c.Param(param) != p.Email {
			forbidden(c)
			return
		}
		c.Next()
	}
}

// RequireOwner allows the request only when the principal owns the resource
// named by path parameter param.
func RequireOwner(param string, lookup OwnerLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			unauthorized(c, "no_principal")
			return
		}
		owner, err := lookup(c.Request.Context(), c.Param(param))
		if err != nil {
			var le *LookupError
			switch {
			case errors.Is(err, ErrResourceNotFound):
				c.Next()
			case errors.As(err, &le):
				c.AbortWithStatusJSON(le.Status, gin.H{"message": le.Message})
			default:
				logger.Errorf("owner lookup for %s failed: %v", c.Param(param), err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			}
			return
		}
		if owner != p.Email {
			forbidden(c)
			return
		}
		c.Next()
	}
}
