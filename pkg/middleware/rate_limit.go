package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/pkg/metrics"
	"golang.org/x/time/rate"
)

// rateKey picks the bucket for a request. The limiter runs ahead of the
// per-route auth gate, so the client IP is the only identity available.
func rateKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func tooManyRequests(c *gin.Context, limiter, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket.
// Each middleware instance keeps its own limiters.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var store sync.Map // map[string]*rate.Limiter
	return func(c *gin.Context) {
		key := rateKey(c)
		v, ok := store.Load(key)
		if !ok {
			v, _ = store.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		}
		if !v.(*rate.Limiter).Allow() {
			tooManyRequests(c, "memory", "1")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
