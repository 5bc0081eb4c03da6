// Package rag implements the RAG Orchestrator: retrieve, assemble a
// grounded prompt, and invoke the chat model (spec.md §4.7).
package rag

import (
	"context"

	"github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

const defaultSystemPreamble = "You are a knowledge-base assistant. Answer the question using only " +
	"the numbered context passages below. If the context does not contain the answer, say so " +
	"rather than guessing. Cite passages by their [N] index when you use them."

// Config bounds prompt assembly and generation, grounded on spec.md §5's
// "bounded by configured maxima" requirement for temperature/max_tokens/top_p.
type Config struct {
	SystemPreamble string
	MaxContextChars int
	MaxTemperature  float32
	MaxTokensCap    int
	MaxTopP         float32
}

func (c Config) withDefaults() Config {
	if c.SystemPreamble == "" {
		c.SystemPreamble = defaultSystemPreamble
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = 8000
	}
	if c.MaxTemperature <= 0 {
		c.MaxTemperature = 1.0
	}
	if c.MaxTokensCap <= 0 {
		c.MaxTokensCap = 2048
	}
	if c.MaxTopP <= 0 {
		c.MaxTopP = 1.0
	}
	return c
}

// Orchestrator implements interfaces.Answerer.
type Orchestrator struct {
	cfg   Config
	query interfaces.QueryEngine
	chat  interfaces.Chat
}

func NewOrchestrator(cfg Config, query interfaces.QueryEngine, chat interfaces.Chat) *Orchestrator {
	return &Orchestrator{cfg: cfg.withDefaults(), query: query, chat: chat}
}

var _ interfaces.Answerer = (*Orchestrator)(nil)

// Answer runs the four-step algorithm from spec.md §4.7.
func (o *Orchestrator) Answer(ctx context.Context, req interfaces.AnswerRequest) (*types.Answer, error) {
	result, err := o.query.Retrieve(ctx, interfaces.RetrieveRequest{
		RequestCtx:        req.RequestCtx,
		KnowledgeBaseIDs:  req.KnowledgeBaseIDs,
		Query:             req.Query,
		TopK:              req.TopK,
		RetrieverOverride: req.RetrieverOverride,
	})
	if err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(o.cfg.SystemPreamble, req.Query, result.Hits, o.cfg.MaxContextChars)
	if err != nil {
		return nil, errors.NewInternalServerError("assemble rag prompt: " + err.Error())
	}

	opts := interfaces.ChatOptions{
		Temperature: clamp(req.Temperature, o.cfg.MaxTemperature),
		MaxTokens:   clampInt(req.MaxTokens, o.cfg.MaxTokensCap),
		TopP:        clamp(req.TopP, o.cfg.MaxTopP),
	}

	text, err := o.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: o.cfg.SystemPreamble},
		{Role: "user", Content: prompt},
	}, opts)
	if err != nil {
		return nil, errors.NewUpstreamUnavailableError("chat completion: " + err.Error())
	}

	return &types.Answer{
		Text:           text,
		Sources:        result.Hits,
		Retrieval:      result.Retrieval,
		Chat:           types.ModelInfo{ID: o.chat.ModelID(), Kind: "chat"},
		RetrievalCount: len(result.Hits),
	}, nil
}

func clamp(v, max float32) float32 {
	if v <= 0 || v > max {
		return max
	}
	return v
}

func clampInt(v, max int) int {
	if v <= 0 || v > max {
		return max
	}
	return v
}
