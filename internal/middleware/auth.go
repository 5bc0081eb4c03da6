// Package middleware implements the gin request pipeline: request-id and
// access logging, panic recovery, the AppError -> HTTP envelope
// translation, and the two authentication schemes spec.md §6 names
// (api-key for /v1/*, admin-token for /admin/*).
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

const requestContextGinKey = "kbvault.request_context"

// RequestContextFrom returns the RequestContext ApiKeyAuth resolved for
// this request, for handlers to read.
func RequestContextFrom(c *gin.Context) types.RequestContext {
	v, _ := c.Get(requestContextGinKey)
	rc, _ := v.(types.RequestContext)
	return rc
}

// ApiKeyAuth authenticates the Authorization: Bearer <api-key> header via
// resolver, then enforces the resolved key's (or the configured default)
// per-minute rate limit before letting the request through.
func ApiKeyAuth(resolver interfaces.IdentityResolver, limiter interfaces.RateLimiter, defaultPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.GetHeader("Authorization")
		if credential == "" {
			c.Error(apperrors.NewAuthInvalidError("missing Authorization header"))
			c.Abort()
			return
		}

		rc, err := resolver.Resolve(c.Request.Context(), credential)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		limit := defaultPerMinute
		if rc.RateLimitPerMin != nil {
			limit = *rc.RateLimitPerMin
		}
		allowed, err := limiter.Allow(c.Request.Context(), rc.ApiKeyID, limit)
		if err != nil {
			c.Error(apperrors.NewInternalServerError(err.Error()))
			c.Abort()
			return
		}
		if !allowed {
			c.Header("Retry-After", "60")
			c.Error(apperrors.NewRateLimitedError("rate limit exceeded"))
			c.Abort()
			return
		}

		c.Set(requestContextGinKey, *rc)
		c.Next()
	}
}

// AdminAuth authenticates the X-Admin-Token header against either the
// configured bootstrap token (so the very first tenant can be created
// before any AdminToken row exists) or a hashed, unrevoked AdminToken row.
func AdminAuth(tokens interfaces.AdminTokenRepository, bootstrapToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if token == "" {
			c.Error(apperrors.NewAuthInvalidError("missing X-Admin-Token header"))
			c.Abort()
			return
		}

		if bootstrapToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(bootstrapToken)) == 1 {
			c.Next()
			return
		}

		sum := sha256.Sum256([]byte(token))
		rec, err := tokens.GetByHashedToken(c.Request.Context(), hex.EncodeToString(sum[:]))
		if err != nil {
			c.Error(apperrors.NewAuthInvalidError("invalid admin token"))
			c.Abort()
			return
		}
		if !rec.Valid(time.Now()) {
			c.Error(apperrors.NewAuthInvalidError("admin token revoked or expired"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose resolved role doesn't meet min,
// ordered read < write < admin, used on write-bearing /v1/* endpoints.
func RequireRole(min types.Role) gin.HandlerFunc {
	rank := map[types.Role]int{types.RoleRead: 0, types.RoleWrite: 1, types.RoleAdmin: 2}
	return func(c *gin.Context) {
		rc := RequestContextFrom(c)
		if rank[rc.Role] < rank[min] {
			c.Error(apperrors.NewPermissionDeniedError("role " + string(rc.Role) + " may not perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}
