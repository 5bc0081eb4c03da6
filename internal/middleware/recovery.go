package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kbvault/kbvault/internal/logger"
)

// Recovery turns a panicking handler into a 500 instead of a dropped
// connection, logging the stack for diagnosis.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf(c.Request.Context(), "panic: %v\n%s", r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    "internal",
						"message": fmt.Sprintf("internal server error: %v", r),
					},
				})
			}
		}()
		c.Next()
	}
}
