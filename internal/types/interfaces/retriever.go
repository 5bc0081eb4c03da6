package interfaces

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
)

// Retriever produces ranked Hits for a query against one knowledge base.
// Implementations push tenant/kb/ACL filters down to their backing store
// where possible; the Query Orchestrator still re-trims defensively.
type Retriever interface {
	Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error)
	Name() string
}

// RetrieverFactory builds a Retriever from knowledge-base-supplied params.
type RetrieverFactory func(params map[string]any) (Retriever, error)

// Indexer describes write-side indexing of chunks into a retriever's
// backing store. No built-in retriever implements it (dense and bm25
// included); ingestion writes through DenseStore and SparseStore.
type Indexer interface {
	Index(ctx context.Context, chunk types.Chunk, vector []float32) error
	BatchIndex(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error
	DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error
	DeleteByDocumentID(ctx context.Context, documentID string) error
}
