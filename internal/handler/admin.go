package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbvault/kbvault/internal/config"
	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/identity"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// AdminHandler implements the admin-token-authenticated tenant and
// admin-token management endpoints.
type AdminHandler struct {
	tenants     interfaces.TenantRepository
	apiKeys     interfaces.ApiKeyRepository
	adminTokens interfaces.AdminTokenRepository
	defaults    config.TenantConfig
}

func NewAdminHandler(
	tenants interfaces.TenantRepository,
	apiKeys interfaces.ApiKeyRepository,
	adminTokens interfaces.AdminTokenRepository,
	defaults config.TenantConfig,
) *AdminHandler {
	return &AdminHandler{tenants: tenants, apiKeys: apiKeys, adminTokens: adminTokens, defaults: defaults}
}

type createTenantRequest struct {
	Name      string `json:"name" binding:"required"`
	KBQuota   *int64 `json:"kb_quota"`
	DocQuota  *int64 `json:"doc_quota"`
	StorageMB *int64 `json:"storage_mb_quota"`
}

// CreateTenant creates a tenant and its first admin api-key in one call,
// returning the key's plaintext exactly once; only its hash is ever
// persisted.
func (h *AdminHandler) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	tenant := &types.Tenant{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Status:    types.TenantActive,
		KBQuota:   derefOr(req.KBQuota, h.defaults.DefaultKBQuota),
		DocQuota:  derefOr(req.DocQuota, h.defaults.DefaultDocQuota),
		StorageMB: derefOr(req.StorageMB, h.defaults.DefaultStorageMB),
	}
	if err := h.tenants.Create(c.Request.Context(), tenant); err != nil {
		c.Error(asAppError(err, "create tenant"))
		return
	}

	plaintext, prefix, err := generateSecret()
	if err != nil {
		c.Error(apperrors.NewInternalServerError(err.Error()))
		return
	}
	key := &types.ApiKey{
		ID:        uuid.New().String(),
		TenantID:  tenant.ID,
		HashedKey: identity.HashKey(plaintext),
		Prefix:    prefix,
		Role:      types.RoleAdmin,
	}
	if err := h.apiKeys.Create(c.Request.Context(), key); err != nil {
		c.Error(asAppError(err, "create initial api key"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tenant":  tenant,
		"api_key": gin.H{"id": key.ID, "key": plaintext, "prefix": prefix},
	})
}

// CreateAdminToken issues a new admin-token, returning its plaintext
// exactly once.
func (h *AdminHandler) CreateAdminToken(c *gin.Context) {
	plaintext, prefix, err := generateSecret()
	if err != nil {
		c.Error(apperrors.NewInternalServerError(err.Error()))
		return
	}
	tok := &types.AdminToken{
		ID:          uuid.New().String(),
		HashedToken: identity.HashKey(plaintext),
		Prefix:      prefix,
	}
	if err := h.adminTokens.Create(c.Request.Context(), tok); err != nil {
		c.Error(asAppError(err, "create admin token"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": tok.ID, "token": plaintext, "prefix": prefix})
}

// ListAdminTokens lists admin tokens (hashes never included).
func (h *AdminHandler) ListAdminTokens(c *gin.Context) {
	tokens, err := h.adminTokens.List(c.Request.Context())
	if err != nil {
		c.Error(asAppError(err, "list admin tokens"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// RevokeAdminToken revokes an admin token by id.
func (h *AdminHandler) RevokeAdminToken(c *gin.Context) {
	id := c.Param("id")
	if err := h.adminTokens.Revoke(c.Request.Context(), id); err != nil {
		c.Error(asAppError(err, "revoke admin token"))
		return
	}
	c.Status(http.StatusNoContent)
}

func derefOr(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

// asAppError passes an *errors.AppError through unchanged, wrapping any
// other error as Internal so handlers never leak unstructured errors.
func asAppError(err error, action string) error {
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}
	return apperrors.NewInternalServerError(action + ": " + err.Error())
}
