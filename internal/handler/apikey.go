package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/identity"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// ApiKeyHandler implements CRUD over a tenant's own api-keys. Every
// method scopes to middleware.RequestContextFrom(c).TenantID, so one
// tenant's admin can never see or revoke another tenant's keys.
type ApiKeyHandler struct {
	apiKeys interfaces.ApiKeyRepository
}

func NewApiKeyHandler(apiKeys interfaces.ApiKeyRepository) *ApiKeyHandler {
	return &ApiKeyHandler{apiKeys: apiKeys}
}

type createApiKeyRequest struct {
	Role            types.Role       `json:"role" binding:"required"`
	ScopeKBIDs      types.StringList `json:"scope_kb_ids"`
	IdentityUser    string           `json:"identity_user"`
	IdentityRoles   types.StringList `json:"identity_roles"`
	IdentityGroups  types.StringList `json:"identity_groups"`
	Clearance       string           `json:"identity_clearance"`
	RateLimitPerMin *int             `json:"rate_limit_per_minute"`
}

// Create issues a new api-key for the caller's tenant, returning its
// plaintext exactly once.
func (h *ApiKeyHandler) Create(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)

	var req createApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	plaintext, prefix, err := generateSecret()
	if err != nil {
		c.Error(apperrors.NewInternalServerError(err.Error()))
		return
	}

	key := &types.ApiKey{
		ID:                uuid.New().String(),
		TenantID:          rc.TenantID,
		HashedKey:         identity.HashKey(plaintext),
		Prefix:            prefix,
		Role:              req.Role,
		ScopeKBIDs:        req.ScopeKBIDs,
		IdentityUser:      req.IdentityUser,
		IdentityRoles:     req.IdentityRoles,
		IdentityGroups:    req.IdentityGroups,
		IdentityClearance: types.ParseClearance(req.Clearance),
		RateLimitPerMin:   req.RateLimitPerMin,
	}
	if err := h.apiKeys.Create(c.Request.Context(), key); err != nil {
		c.Error(asAppError(err, "create api key"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": key.ID, "key": plaintext, "prefix": prefix})
}

// List returns the caller's tenant's api-keys (hashes never included,
// since types.ApiKey.HashedKey is json:"-").
func (h *ApiKeyHandler) List(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)
	keys, err := h.apiKeys.ListByTenant(c.Request.Context(), rc.TenantID)
	if err != nil {
		c.Error(asAppError(err, "list api keys"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": keys})
}

// Revoke revokes one of the caller's tenant's api-keys by id, refusing a
// cross-tenant id with NotFound rather than leaking its existence.
func (h *ApiKeyHandler) Revoke(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)
	id := c.Param("id")

	key, err := h.apiKeys.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(asAppError(err, "revoke api key"))
		return
	}
	if key.TenantID != rc.TenantID {
		c.Error(apperrors.NewNotFoundError("api key not found"))
		return
	}
	if err := h.apiKeys.Revoke(c.Request.Context(), id); err != nil {
		c.Error(asAppError(err, "revoke api key"))
		return
	}
	c.Status(http.StatusNoContent)
}
