package interfaces

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
)

// StoreFilter is the filter push-down contract the ACL evaluator produces
// and store adapters consume, keeping internal/acl free of store-specific
// query-builder types. IdentityUser/Roles/Groups/Clearance are the
// requester's own attributes; the store compares them against each
// chunk's inherited ACL metadata using the same predicate as
// internal/acl.Trim.
type StoreFilter struct {
	TenantID          string
	KnowledgeBaseIDs  []string
	IdentityClearance types.Clearance
	IdentityUser      string
	IdentityRoles     []string
	IdentityGroups    []string
	// HasIdentity is false for system-internal calls (e.g. recovery jobs)
	// that should not apply any ACL predicate at all.
	HasIdentity bool
	// ChildOnly restricts the search to child-type chunks (parent_child
	// retriever's leaf scope).
	ChildOnly bool
}

// DenseStore is the vector-similarity backing store (pgvector).
type DenseStore interface {
	Upsert(ctx context.Context, chunkID string, vector []float32, meta map[string]any) error
	BatchUpsert(ctx context.Context, chunkIDs []string, vectors [][]float32, metas []map[string]any) error
	DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error
	DeleteByDocumentID(ctx context.Context, documentID string) error
	Search(ctx context.Context, vector []float32, topK int, filter StoreFilter) ([]types.Hit, error)
}

// SparseStore is the keyword/BM25 backing store (bleve).
type SparseStore interface {
	Upsert(ctx context.Context, chunkID, text string, meta map[string]any) error
	BatchUpsert(ctx context.Context, chunkIDs []string, texts []string, metas []map[string]any) error
	DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error
	DeleteByDocumentID(ctx context.Context, documentID string) error
	Search(ctx context.Context, query string, topK int, filter StoreFilter) ([]types.Hit, error)
}
