package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/pkg/logger"
	"github.com/tutorhub/tutor-server/pkg/metrics"
)

// Context keys set by AuthMiddleware.
const (
	ContextClaims    = "claims"
	ContextPrincipal = "principal"
	ContextToken     = "token"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// RevocationChecker reports whether a bearer token was revoked before expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Principal is the authenticated caller derived from verified token claims.
type Principal struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// PrincipalFrom returns the principal stored by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func unauthorized(c *gin.Context, reason string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
}

type authOptions struct {
	revocations RevocationChecker
}

type AuthOption func(*authOptions)

// WithRevocations makes the middleware reject tokens found on the revocation list.
func WithRevocations(r RevocationChecker) AuthOption {
	return func(o *authOptions) { o.revocations = r }
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// Every rejection answers 401 with the same body. A nil verifier rejects all requests.
func AuthMiddleware(ver Verifier, opts ...AuthOption) gin.HandlerFunc {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, "missing_header")
			return
		}
		// Expect 'Bearer <token>'
		parts := strings.Fields(auth)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "malformed_header")
			return
		}
		token := parts[1]

		if ver == nil {
			unauthorized(c, "no_verifier")
			return
		}

		if o.revocations != nil {
			revoked, err := o.revocations.IsRevoked(c.Request.Context(), token)
			if err != nil {
				logger.Errorf("revocation check failed: %v", err)
				unauthorized(c, "revocation_error")
				return
			}
			if revoked {
				unauthorized(c, "revoked")
				return
			}
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debugf("token verification failed: %v", err)
			unauthorized(c, "invalid_token")
			return
		}

		// Extract claims
		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			unauthorized(c, "invalid_claims")
			return
		}
		email, _ := claims["email"].(string)
		if email == "" {
			unauthorized(c, "missing_email")
			return
		}
		p := Principal{Email: email}
		p.Subject, _ = claims["sub"].(string)
		p.Name, _ = claims["name"].(string)
		if p.Name == "" {
			p.Name, _ = claims["preferred_username"].(string)
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextPrincipal, p)
		c.Set(ContextToken, token)
		c.Next()
	}
}
