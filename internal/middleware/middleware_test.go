package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	rc  *types.RequestContext
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, credential string) (*types.RequestContext, error) {
	return f.rc, f.err
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f *fakeLimiter) Allow(ctx context.Context, apiKeyID string, limit int) (bool, error) {
	return f.allow, f.err
}

type fakeAdminTokens struct {
	tok *types.AdminToken
	err error
}

func (f *fakeAdminTokens) Create(ctx context.Context, t *types.AdminToken) error { return nil }
func (f *fakeAdminTokens) GetByHashedToken(ctx context.Context, hashed string) (*types.AdminToken, error) {
	return f.tok, f.err
}
func (f *fakeAdminTokens) Revoke(ctx context.Context, id string) error { return nil }
func (f *fakeAdminTokens) List(ctx context.Context) ([]types.AdminToken, error) { return nil, nil }

func TestErrorHandlerRendersAppErrorEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		c.Error(apperrors.NewNotFoundError("knowledge base not found"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":{"code":"not_found","message":"knowledge base not found"}}`, w.Body.String())
}

func TestErrorHandlerRendersPlainErrorAsInternal(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		c.Error(require.AnError)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/x", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDPropagatesProvidedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	require.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRequireRoleRejectsBelowMinimum(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(requestContextGinKey, types.RequestContext{Role: types.RoleRead})
		c.Next()
	})
	r.POST("/x", RequireRole(types.RoleWrite), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllowsAtOrAboveMinimum(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(requestContextGinKey, types.RequestContext{Role: types.RoleAdmin})
		c.Next()
	})
	r.POST("/x", RequireRole(types.RoleWrite), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestApiKeyAuthRejectsMissingHeader(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", ApiKeyAuth(&fakeResolver{}, &fakeLimiter{allow: true}, 120), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApiKeyAuthRejectsWhenRateLimited(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	resolver := &fakeResolver{rc: &types.RequestContext{ApiKeyID: "k1", Role: types.RoleRead}}
	r.GET("/x", ApiKeyAuth(resolver, &fakeLimiter{allow: false}, 120), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestApiKeyAuthSetsRequestContextOnSuccess(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	resolver := &fakeResolver{rc: &types.RequestContext{ApiKeyID: "k1", TenantID: "t1", Role: types.RoleRead}}
	r.GET("/x", ApiKeyAuth(resolver, &fakeLimiter{allow: true}, 120), func(c *gin.Context) {
		rc := RequestContextFrom(c)
		require.Equal(t, "t1", rc.TenantID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuthAcceptsBootstrapToken(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", AdminAuth(&fakeAdminTokens{err: require.AnError}, "boot-secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Admin-Token", "boot-secret")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuthRejectsUnknownToken(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", AdminAuth(&fakeAdminTokens{err: require.AnError}, "boot-secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
