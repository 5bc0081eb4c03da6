package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbvault/kbvault/internal/logger"
	"github.com/kbvault/kbvault/internal/types"
)

// RequestID assigns (or propagates) a per-request trace id and stamps a
// request-scoped logger carrying it, mirroring the teacher's
// RequestID+Logger middleware pair.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		entry := logger.GetLogger(c.Request.Context()).WithField("request_id", requestID)
		ctx := context.WithValue(c.Request.Context(), types.RequestIDContextKey, requestID)
		ctx = context.WithValue(ctx, types.LoggerContextKey, entry)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
