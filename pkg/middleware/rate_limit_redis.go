package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tutorhub/tutor-server/pkg/logger"
	"github.com/tutorhub/tutor-server/pkg/metrics"
)

// RedisRateLimitMiddleware provides a coarse fixed-window Redis-backed limiter shared by
// all replicas. The first INCR of a key opens the window by setting its TTL; allowed
// requests per window = floor(rps*windowSeconds)+burst.
// When Redis is unreachable the request is let through.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		// fallback to in-memory if no client
		return RateLimitMiddleware(rps, burst)
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	ttl := time.Duration(windowSeconds) * time.Second
	allowedPerWindow := int64(rps*float64(windowSeconds)) + int64(burst)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "rl:" + rateKey(c)

		cnt, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warnf("redis rate limit unavailable: %v", err)
			c.Next()
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, key, ttl).Err()
		}
		if cnt > allowedPerWindow {
			tooManyRequests(c, "redis", strconv.Itoa(windowSeconds))
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
