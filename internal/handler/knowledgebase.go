package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// KnowledgeBaseHandler implements tenant-scoped knowledge-base CRUD,
// enforcing the tenant's kb_quota on Create.
type KnowledgeBaseHandler struct {
	kbs     interfaces.KnowledgeBaseRepository
	tenants interfaces.TenantRepository
}

func NewKnowledgeBaseHandler(kbs interfaces.KnowledgeBaseRepository, tenants interfaces.TenantRepository) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{kbs: kbs, tenants: tenants}
}

type createKnowledgeBaseRequest struct {
	Name            string         `json:"name" binding:"required"`
	Description     string         `json:"description"`
	ChunkerConfig   map[string]any `json:"chunker_config"`
	RetrieverConfig map[string]any `json:"retriever_config"`
	EmbeddingConfig map[string]any `json:"embedding_config" binding:"required"`
}

// Create creates a knowledge base for the caller's tenant, refusing once
// the tenant's kb_quota (−1 = unlimited) is reached.
func (h *KnowledgeBaseHandler) Create(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)

	var req createKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	tenant, err := h.tenants.GetByID(c.Request.Context(), rc.TenantID)
	if err != nil {
		c.Error(asAppError(err, "load tenant"))
		return
	}
	if tenant.KBQuota != types.Unlimited {
		count, err := h.kbs.CountByTenant(c.Request.Context(), rc.TenantID)
		if err != nil {
			c.Error(asAppError(err, "count knowledge bases"))
			return
		}
		if count >= tenant.KBQuota {
			c.Error(apperrors.NewQuotaExceededError("knowledge base quota exceeded for tenant"))
			return
		}
	}

	kb := &types.KnowledgeBase{
		ID:              uuid.New().String(),
		TenantID:        rc.TenantID,
		Name:            req.Name,
		Description:     req.Description,
		ChunkerConfig:   types.JSON(req.ChunkerConfig),
		RetrieverConfig: types.JSON(req.RetrieverConfig),
		EmbeddingConfig: types.JSON(req.EmbeddingConfig),
	}
	if err := h.kbs.Create(c.Request.Context(), kb); err != nil {
		c.Error(asAppError(err, "create knowledge base"))
		return
	}
	c.JSON(http.StatusCreated, kb)
}

// List paginates the caller's tenant's knowledge bases.
func (h *KnowledgeBaseHandler) List(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)
	offset, limit := parseOffsetLimit(c)

	list, total, err := h.kbs.ListByTenant(c.Request.Context(), rc.TenantID, offset, limit)
	if err != nil {
		c.Error(asAppError(err, "list knowledge bases"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"knowledge_bases": list, "total": total})
}

// Get returns a single knowledge base, scoped to the caller's tenant.
func (h *KnowledgeBaseHandler) Get(c *gin.Context) {
	kb, err := h.scopedGet(c)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, kb)
}

// Delete soft-deletes a knowledge base row; its documents, chunks and
// dense/sparse store entries are not removed.
func (h *KnowledgeBaseHandler) Delete(c *gin.Context) {
	kb, err := h.scopedGet(c)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.kbs.Delete(c.Request.Context(), kb.ID); err != nil {
		c.Error(asAppError(err, "delete knowledge base"))
		return
	}
	c.Status(http.StatusNoContent)
}

// scopedGet loads a knowledge base by path id, returning NotFound rather
// than leaking cross-tenant existence if it belongs to another tenant.
func (h *KnowledgeBaseHandler) scopedGet(c *gin.Context) (*types.KnowledgeBase, error) {
	rc := middleware.RequestContextFrom(c)
	kb, err := h.kbs.GetByID(c.Request.Context(), c.Param("kb_id"))
	if err != nil {
		return nil, asAppError(err, "load knowledge base")
	}
	if kb.TenantID != rc.TenantID {
		return nil, apperrors.NewNotFoundError("knowledge base not found")
	}
	return kb, nil
}

// parseOffsetLimit reads ?offset=&limit= pagination params, defaulting to
// the first 20 rows and capping limit at 200 per call.
func parseOffsetLimit(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	return offset, limit
}
