package interfaces

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
)

// RateLimiter gates requests per api-key within a sliding one-minute
// window. Implementations must never fail a request outright on their
// own internal errors; they degrade to permissive instead.
type RateLimiter interface {
	Allow(ctx context.Context, apiKeyID string, limit int) (bool, error)
}

// IdentityResolver authenticates a raw credential into a RequestContext.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*types.RequestContext, error)
}

// IngestRequest is the input to the Ingestion Orchestrator.
type IngestRequest struct {
	DocumentID string
}

// Ingestor drives a single document through chunk -> embed -> index.
type Ingestor interface {
	Ingest(ctx context.Context, req IngestRequest) (*types.ChunkingResult, error)
}

// RetrieveRequest is the input to the Query Orchestrator. KnowledgeBaseIDs
// may name more than one KB (spec.md §4.6); RetrieverOverride, when set,
// wins over every named KB's own configured retriever.
type RetrieveRequest struct {
	RequestCtx        types.RequestContext
	KnowledgeBaseIDs  []string
	Query             string
	TopK              int
	RetrieverOverride string
}

// QueryEngine drives retrieval across engines plus post-processing.
type QueryEngine interface {
	Retrieve(ctx context.Context, req RetrieveRequest) (*types.QueryResult, error)
}

// AnswerRequest is the input to the RAG Orchestrator.
type AnswerRequest struct {
	RequestCtx        types.RequestContext
	KnowledgeBaseIDs  []string
	Query             string
	TopK              int
	RetrieverOverride string
	Temperature       float32
	MaxTokens         int
	TopP              float32
}

// Answerer drives retrieval plus grounded generation.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (*types.Answer, error)
}
