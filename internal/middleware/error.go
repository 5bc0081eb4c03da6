package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbvault/kbvault/internal/errors"
)

// ErrorHandler renders the last error a handler attached via c.Error into
// spec.md §6's envelope: {error:{code,message,details?}}. Handlers never
// write their own error response; they call c.Error and return.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := apperrors.IsAppError(err); ok {
			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			}
			if appErr.Details != nil {
				body["details"] = appErr.Details
			}
			c.JSON(appErr.HTTPCode, gin.H{"error": body})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    apperrors.CodeInternal,
				"message": "internal server error",
			},
		})
	}
}
