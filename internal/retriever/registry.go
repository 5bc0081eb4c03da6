// Package retriever implements the pluggable Retriever Registry: dense,
// bm25, hybrid, fusion, hyde, multi_query and parent_child expansion, all
// registered by name factory-style, mirroring the chunker registry's shape
// applied to a domain where retrievers need runtime collaborators (stores,
// model clients, each other) rather than pure text in/out.
package retriever

import (
	"fmt"
	"sync"

	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Registry is a factory-keyed registry of retriever builders, grounded on
// the teacher's RetrieveEngineRegistry registration pattern.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]interfaces.RetrieverFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]interfaces.RetrieverFactory)}
}

// Register adds a named retriever factory. Registering the same name twice
// is an error so startup wiring fails loudly rather than silently
// shadowing.
func (r *Registry) Register(name string, factory interfaces.RetrieverFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("retriever %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Build constructs a Retriever of the named type with params. Composite
// retrievers (hybrid, fusion, hyde, multi_query, parent_child) call Build
// again on r to resolve their sub-retrievers by name, so factories for
// those must only be invoked after every leaf retriever they might
// reference is already registered.
func (r *Registry) Build(name string, params map[string]any) (interfaces.Retriever, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("retriever %q not registered", name)
	}
	return factory(params)
}

// Dependencies are the runtime collaborators retriever factories close
// over. Unlike chunkers, retrievers are not pure text transforms: dense
// and bm25 need their backing stores, hyde/multi_query need an LLM and
// embedder, fusion needs an optional reranker, and parent_child needs the
// chunk repository to look up parents.
type Dependencies struct {
	DenseStore  interfaces.DenseStore
	SparseStore interfaces.SparseStore
	Chat        interfaces.Chat
	Reranker    interfaces.Reranker
	ChunkRepo   interfaces.ChunkRepository
	// ResolveEmbedder looks up the Embedder for a KB's configured
	// embedding model, set on types.RetrieveParams.EmbeddingModelID by the
	// Query Orchestrator.
	ResolveEmbedder func(modelID string) (interfaces.Embedder, error)
}

// NewDefaultRegistry returns a Registry with all seven built-in retrievers
// registered (spec.md §4.3). Composite retrievers capture the registry
// itself so their sub-retriever names resolve lazily at Build time.
func NewDefaultRegistry(deps Dependencies) *Registry {
	r := NewRegistry()

	_ = r.Register("dense", func(params map[string]any) (interfaces.Retriever, error) {
		return newDenseRetriever(deps.DenseStore, deps.ResolveEmbedder), nil
	})
	_ = r.Register("bm25", func(params map[string]any) (interfaces.Retriever, error) {
		return newBM25Retriever(deps.SparseStore), nil
	})
	_ = r.Register("hybrid", func(params map[string]any) (interfaces.Retriever, error) {
		return newHybridRetriever(r, params)
	})
	_ = r.Register("fusion", func(params map[string]any) (interfaces.Retriever, error) {
		return newFusionRetriever(r, deps.Reranker, params)
	})
	_ = r.Register("hyde", func(params map[string]any) (interfaces.Retriever, error) {
		return newHyDERetriever(r, deps.Chat, deps.ResolveEmbedder, params)
	})
	_ = r.Register("multi_query", func(params map[string]any) (interfaces.Retriever, error) {
		return newMultiQueryRetriever(r, deps.Chat, params)
	})
	_ = r.Register("parent_child", func(params map[string]any) (interfaces.Retriever, error) {
		return newParentChildRetriever(r, deps.ChunkRepo, params)
	})
	return r
}
