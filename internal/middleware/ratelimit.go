package middleware

import (
	"strconv"
	"time"

	"github.com/factshield/core/internal/pkg/ratelimit"
	"github.com/factshield/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces a fixed-window per-IP limit. Every response carries
// the X-RateLimit-* headers; denied requests additionally get Retry-After.
func RateLimit(limiter *ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		res := limiter.Check(ip, limit, window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
			response.TooManyRequests(c, "rate limit exceeded, slow down", res.RetryAfterSeconds)
			return
		}

		c.Next()
	}
}
