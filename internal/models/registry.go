// Package models builds the configured embedding, chat, and rerank model
// clients from config.Config and exposes them by ModelConfig.ID, the same
// name-keyed-factory shape the chunker and retriever registries already
// use in this codebase, applied here to a set that needs no runtime
// registration since every model is known at startup.
package models

import (
	"fmt"

	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/models/chat"
	"github.com/kbvault/kbvault/internal/models/embedding"
	"github.com/kbvault/kbvault/internal/models/rerank"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Registry holds every configured model client keyed by ModelConfig.ID.
// A knowledge base's EmbeddingConfig.ModelID is resolved against
// embedders; the single default chat and rerank model back the RAG
// Orchestrator and the fusion/reranking retrievers, since those only ever
// need one of each regardless of how many are configured.
type Registry struct {
	embedders map[string]interfaces.Embedder
	chats     map[string]interfaces.Chat
	rerankers map[string]interfaces.Reranker

	defaultChat     interfaces.Chat
	defaultReranker interfaces.Reranker
}

// NewRegistry constructs a client for every configured model, failing
// fast on the first invalid one so misconfiguration surfaces at startup.
func NewRegistry(cfgs []config.ModelConfig) (*Registry, error) {
	r := &Registry{
		embedders: make(map[string]interfaces.Embedder),
		chats:     make(map[string]interfaces.Chat),
		rerankers: make(map[string]interfaces.Reranker),
	}
	for _, m := range cfgs {
		if m.ID == "" {
			return nil, fmt.Errorf("model of type %q has no id", m.Type)
		}
		switch m.Type {
		case "embedding":
			e, err := embedding.NewOpenAIEmbedder(embedding.Config{
				BaseURL:    m.BaseURL,
				APIKey:     m.APIKey,
				ModelName:  m.ModelName,
				ModelID:    m.ID,
				Dimensions: m.Dimensions,
			})
			if err != nil {
				return nil, fmt.Errorf("embedding model %q: %w", m.ID, err)
			}
			r.embedders[m.ID] = e
		case "chat":
			c, err := chat.NewOpenAIChat(chat.Config{
				BaseURL: m.BaseURL, APIKey: m.APIKey, ModelName: m.ModelName, ModelID: m.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("chat model %q: %w", m.ID, err)
			}
			r.chats[m.ID] = c
			if m.Default || r.defaultChat == nil {
				r.defaultChat = c
			}
		case "rerank":
			rk, err := rerank.NewOpenAIReranker(rerank.Config{
				BaseURL: m.BaseURL, APIKey: m.APIKey, ModelName: m.ModelName, ModelID: m.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("rerank model %q: %w", m.ID, err)
			}
			r.rerankers[m.ID] = rk
			if m.Default || r.defaultReranker == nil {
				r.defaultReranker = rk
			}
		default:
			return nil, fmt.Errorf("model %q: unknown type %q", m.ID, m.Type)
		}
	}
	return r, nil
}

// ResolveEmbedder looks up the Embedder for a knowledge base's configured
// embedding model, the shape internal/retriever.Dependencies requires.
func (r *Registry) ResolveEmbedder(modelID string) (interfaces.Embedder, error) {
	e, ok := r.embedders[modelID]
	if !ok {
		return nil, fmt.Errorf("embedding model %q not configured", modelID)
	}
	return e, nil
}

// DefaultChat returns the configured chat model, or nil if none is
// configured (RAG answering is then unavailable).
func (r *Registry) DefaultChat() interfaces.Chat { return r.defaultChat }

// DefaultReranker returns the configured rerank model, or nil if none is
// configured (reranking is optional per spec.md §4.3).
func (r *Registry) DefaultReranker() interfaces.Reranker { return r.defaultReranker }
