package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbvault/kbvault/internal/metrics"
)

// Metrics records each completed request's status in counters.
func Metrics(counters *metrics.Counters) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		counters.Observe(c.Writer.Status())
	}
}
