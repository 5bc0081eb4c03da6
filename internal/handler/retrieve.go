package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// RetrieveHandler implements POST /v1/retrieve.
type RetrieveHandler struct {
	engine interfaces.QueryEngine
}

func NewRetrieveHandler(engine interfaces.QueryEngine) *RetrieveHandler {
	return &RetrieveHandler{engine: engine}
}

type retrieveRequest struct {
	KnowledgeBaseIDs  []string `json:"knowledge_base_ids" binding:"required,min=1"`
	Query             string   `json:"query" binding:"required"`
	TopK              int      `json:"top_k"`
	RetrieverOverride string   `json:"retriever"`
}

func (h *RetrieveHandler) Retrieve(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)

	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	result, err := h.engine.Retrieve(c.Request.Context(), interfaces.RetrieveRequest{
		RequestCtx:        rc,
		KnowledgeBaseIDs:  req.KnowledgeBaseIDs,
		Query:             req.Query,
		TopK:              req.TopK,
		RetrieverOverride: req.RetrieverOverride,
	})
	if err != nil {
		c.Error(asAppError(err, "retrieve"))
		return
	}
	c.JSON(http.StatusOK, result)
}
