package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"shoplane/api/internal/ratelimit"
)

// RateLimit throttles by caller IP + route. Rejections use transport
// 429, the one recoverable error that does not ride the 200 envelope.
func RateLimit(limiter ratelimit.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Fail closed: a broken limiter backend denies rather than
			// waves through.
			log.Error().Err(err).Str("key", key).Msg("rate limiter error")
			allowed = false
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"code":    "RATE_LIMITED",
				"message": "too many requests",
			})
			return
		}

		c.Next()
	}
}
