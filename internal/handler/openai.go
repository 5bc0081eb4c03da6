package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/models"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// OpenAIHandler exposes OpenAI-shaped /v1/embeddings and
// /v1/chat/completions endpoints over the configured model registry, the
// latter extended with a knowledge_base_ids field that routes the call
// through the RAG Orchestrator instead of the bare chat model.
type OpenAIHandler struct {
	registry *models.Registry
	answerer interfaces.Answerer
}

func NewOpenAIHandler(registry *models.Registry, answerer interfaces.Answerer) *OpenAIHandler {
	return &OpenAIHandler{registry: registry, answerer: answerer}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input" binding:"required,min=1"`
}

type embeddingObject struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// Embeddings implements POST /v1/embeddings in the OpenAI response shape.
func (h *OpenAIHandler) Embeddings(c *gin.Context) {
	var req embeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	embedder, err := h.registry.ResolveEmbedder(req.Model)
	if err != nil {
		c.Error(apperrors.NewConfigMismatchError(err.Error()))
		return
	}

	vectors, err := embedder.BatchEmbed(c.Request.Context(), req.Input)
	if err != nil {
		c.Error(apperrors.NewUpstreamUnavailableError(err.Error()))
		return
	}

	data := make([]embeddingObject, len(vectors))
	for i, v := range vectors {
		data[i] = embeddingObject{Object: "embedding", Index: i, Embedding: v}
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
		"model":  embedder.ModelID(),
	})
}

type chatCompletionsRequest struct {
	Model            string             `json:"model"`
	Messages         []openaiChatMessage `json:"messages" binding:"required,min=1"`
	Temperature      float32            `json:"temperature"`
	MaxTokens        int                `json:"max_tokens"`
	TopP             float32            `json:"top_p"`
	KnowledgeBaseIDs []string           `json:"knowledge_base_ids"`
	TopK             int                `json:"top_k"`
	Retriever        string             `json:"retriever"`
}

type openaiChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatCompletions implements POST /v1/chat/completions. When
// knowledge_base_ids is non-empty the call is answered by the RAG
// Orchestrator, grounded on the last user message; otherwise it falls
// through to the default chat model with no retrieval.
func (h *OpenAIHandler) ChatCompletions(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)

	var req chatCompletionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	if len(req.KnowledgeBaseIDs) > 0 {
		query := lastUserMessage(req.Messages)
		if query == "" {
			c.Error(apperrors.NewValidationError("no user message found to ground retrieval on"))
			return
		}
		topK := req.TopK
		if topK <= 0 {
			topK = 10
		}
		answer, err := h.answerer.Answer(c.Request.Context(), interfaces.AnswerRequest{
			RequestCtx:        rc,
			KnowledgeBaseIDs:  req.KnowledgeBaseIDs,
			Query:             query,
			TopK:              topK,
			RetrieverOverride: req.Retriever,
			Temperature:       req.Temperature,
			MaxTokens:         req.MaxTokens,
			TopP:              req.TopP,
		})
		if err != nil {
			c.Error(asAppError(err, "chat completion with retrieval"))
			return
		}
		c.JSON(http.StatusOK, chatCompletionResponse(answer.Chat.ID, answer.Text))
		return
	}

	chat := h.registry.DefaultChat()
	if chat == nil {
		c.Error(apperrors.NewConfigMismatchError("no chat model configured"))
		return
	}
	messages := make([]interfaces.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = interfaces.ChatMessage{Role: m.Role, Content: m.Content}
	}
	text, err := chat.Chat(c.Request.Context(), messages, interfaces.ChatOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	})
	if err != nil {
		c.Error(apperrors.NewUpstreamUnavailableError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, chatCompletionResponse(chat.ModelID(), text))
}

func lastUserMessage(messages []openaiChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func chatCompletionResponse(model, content string) gin.H {
	return gin.H{
		"object": "chat.completion",
		"model":  model,
		"choices": []gin.H{
			{
				"index": 0,
				"message": gin.H{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}
