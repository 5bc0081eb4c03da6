package interfaces

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
)

// TenantRepository persists Tenant entities.
type TenantRepository interface {
	Create(ctx context.Context, t *types.Tenant) error
	GetByID(ctx context.Context, id string) (*types.Tenant, error)
	Update(ctx context.Context, t *types.Tenant) error
	List(ctx context.Context, offset, limit int) ([]types.Tenant, int64, error)
}

// ApiKeyRepository persists ApiKey entities.
type ApiKeyRepository interface {
	Create(ctx context.Context, k *types.ApiKey) error
	GetByHashedKey(ctx context.Context, hashed string) (*types.ApiKey, error)
	GetByID(ctx context.Context, id string) (*types.ApiKey, error)
	Revoke(ctx context.Context, id string) error
	ListByTenant(ctx context.Context, tenantID string) ([]types.ApiKey, error)
}

// AdminTokenRepository persists AdminToken entities.
type AdminTokenRepository interface {
	Create(ctx context.Context, t *types.AdminToken) error
	GetByHashedToken(ctx context.Context, hashed string) (*types.AdminToken, error)
	Revoke(ctx context.Context, id string) error
	List(ctx context.Context) ([]types.AdminToken, error)
}

// KnowledgeBaseRepository persists KnowledgeBase entities.
type KnowledgeBaseRepository interface {
	Create(ctx context.Context, kb *types.KnowledgeBase) error
	GetByID(ctx context.Context, id string) (*types.KnowledgeBase, error)
	Update(ctx context.Context, kb *types.KnowledgeBase) error
	Delete(ctx context.Context, id string) error
	ListByTenant(ctx context.Context, tenantID string, offset, limit int) ([]types.KnowledgeBase, int64, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}

// DocumentRepository persists Document entities.
type DocumentRepository interface {
	Create(ctx context.Context, d *types.Document) error
	GetByID(ctx context.Context, id string) (*types.Document, error)
	GetByContentHash(ctx context.Context, kbID, hash string) (*types.Document, error)
	Update(ctx context.Context, d *types.Document) error
	Delete(ctx context.Context, id string) error
	ListByKnowledgeBase(ctx context.Context, kbID string, offset, limit int) ([]types.Document, int64, error)
	CountByKnowledgeBase(ctx context.Context, kbID string) (int64, error)
}

// ChunkRepository persists Chunk entities.
type ChunkRepository interface {
	BatchCreate(ctx context.Context, chunks []types.Chunk) error
	GetByID(ctx context.Context, id string) (*types.Chunk, error)
	GetByIDs(ctx context.Context, ids []string) ([]types.Chunk, error)
	ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error)
	UpdateStatus(ctx context.Context, chunkID string, status types.IndexingStatus, errMsg string) error
	DeleteByDocumentID(ctx context.Context, documentID string) error
	ListStalePending(ctx context.Context, olderThanSeconds int64, limit int) ([]types.Chunk, error)
}
