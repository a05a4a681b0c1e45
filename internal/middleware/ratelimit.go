package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// RateLimit allows limit requests per client IP and window for action.
// Limiter failures are logged and the request is let through.
func RateLimit(l *ratelimiter.Limiter, log *logger.Logger, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), action, c.ClientIP(), limit, window)
		if err != nil {
			log.Warn("rate limiter unavailable", "action", action, "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
