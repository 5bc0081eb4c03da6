package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// RAGHandler implements POST /v1/rag.
type RAGHandler struct {
	answerer interfaces.Answerer
}

func NewRAGHandler(answerer interfaces.Answerer) *RAGHandler {
	return &RAGHandler{answerer: answerer}
}

type ragRequest struct {
	KnowledgeBaseIDs  []string `json:"knowledge_base_ids" binding:"required,min=1"`
	Query             string   `json:"query" binding:"required"`
	TopK              int      `json:"top_k"`
	RetrieverOverride string   `json:"retriever"`
	Temperature       float32  `json:"temperature"`
	MaxTokens         int      `json:"max_tokens"`
	TopP              float32  `json:"top_p"`
}

func (h *RAGHandler) Answer(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)

	var req ragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	answer, err := h.answerer.Answer(c.Request.Context(), interfaces.AnswerRequest{
		RequestCtx:        rc,
		KnowledgeBaseIDs:  req.KnowledgeBaseIDs,
		Query:             req.Query,
		TopK:              req.TopK,
		RetrieverOverride: req.RetrieverOverride,
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
		TopP:              req.TopP,
	})
	if err != nil {
		c.Error(asAppError(err, "answer"))
		return
	}
	c.JSON(http.StatusOK, answer)
}
