package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbvault/kbvault/internal/logger"
)

// AccessLog logs one line per completed request: method, path, status,
// latency. It must run after RequestID so the request-scoped logger
// carries the request id.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Infof(c.Request.Context(), "%s %s -> %d (%s)",
			c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
