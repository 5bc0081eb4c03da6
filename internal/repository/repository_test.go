package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
)

// newTestDB opens an in-memory sqlite database and migrates every
// relational entity, the same role the teacher's tests give a scratch
// Postgres schema, swapped for a driver that needs no external service.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Tenant{}, &types.ApiKey{}, &types.AdminToken{},
		&types.KnowledgeBase{}, &types.Document{}, &types.Chunk{},
	))
	return db
}

func TestTenantRepositoryCreateGetUpdateList(t *testing.T) {
	db := newTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	tenant := &types.Tenant{ID: "t1", Name: "acme", Status: types.TenantActive, StorageMB: types.Unlimited}
	require.NoError(t, repo.Create(ctx, tenant))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "acme", got.Name)

	got.StorageUsed = 42
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(42), reloaded.StorageUsed)

	list, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, list, 1)
}

func TestTenantRepositoryGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewTenantRepository(db)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestApiKeyRepositoryCreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	tenants := NewTenantRepository(db)
	keys := NewApiKeyRepository(db)
	ctx := context.Background()

	require.NoError(t, tenants.Create(ctx, &types.Tenant{ID: "t1", Status: types.TenantActive}))
	key := &types.ApiKey{ID: "k1", TenantID: "t1", HashedKey: "hash1", Role: types.RoleRead}
	require.NoError(t, keys.Create(ctx, key))

	got, err := keys.GetByHashedKey(ctx, "hash1")
	require.NoError(t, err)
	require.Equal(t, "k1", got.ID)

	require.NoError(t, keys.Revoke(ctx, "k1"))
	revoked, err := keys.GetByID(ctx, "k1")
	require.NoError(t, err)
	require.True(t, revoked.Revoked)

	list, err := keys.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAdminTokenRepositoryCreateLookupRevoke(t *testing.T) {
	db := newTestDB(t)
	tokens := NewAdminTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, tokens.Create(ctx, &types.AdminToken{ID: "a1", HashedToken: "adminhash"}))
	got, err := tokens.GetByHashedToken(ctx, "adminhash")
	require.NoError(t, err)
	require.Equal(t, "a1", got.ID)

	require.NoError(t, tokens.Revoke(ctx, "a1"))
	got2, err := tokens.GetByHashedToken(ctx, "adminhash")
	require.NoError(t, err)
	require.True(t, got2.Revoked)

	list, err := tokens.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestKnowledgeBaseRepositoryCRUDAndCount(t *testing.T) {
	db := newTestDB(t)
	kbs := NewKnowledgeBaseRepository(db)
	ctx := context.Background()

	require.NoError(t, kbs.Create(ctx, &types.KnowledgeBase{ID: "kb1", TenantID: "t1", Name: "docs"}))
	require.NoError(t, kbs.Create(ctx, &types.KnowledgeBase{ID: "kb2", TenantID: "t1", Name: "wiki"}))

	count, err := kbs.CountByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	list, total, err := kbs.ListByTenant(ctx, "t1", 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	require.NoError(t, kbs.Delete(ctx, "kb1"))
	_, err = kbs.GetByID(ctx, "kb1")
	require.Error(t, err)
}

func TestDocumentRepositoryCRUDAndContentHashLookup(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db)
	ctx := context.Background()

	doc := &types.Document{ID: "d1", KnowledgeBaseID: "kb1", Title: "readme", ContentHash: "abc123"}
	require.NoError(t, docs.Create(ctx, doc))

	got, err := docs.GetByContentHash(ctx, "kb1", "abc123")
	require.NoError(t, err)
	require.Equal(t, "d1", got.ID)

	count, err := docs.CountByKnowledgeBase(ctx, "kb1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	require.NoError(t, docs.Delete(ctx, "d1"))
	list, _, err := docs.ListByKnowledgeBase(ctx, "kb1", 0, 10)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestChunkRepositoryBatchCreateStatusAndStaleScan(t *testing.T) {
	db := newTestDB(t)
	chunks := NewChunkRepository(db)
	ctx := context.Background()

	rows := []types.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Text: "alpha", IndexingStatus: types.IndexingPending},
		{ID: "c2", DocumentID: "d1", Ordinal: 1, Text: "beta", IndexingStatus: types.IndexingPending},
	}
	require.NoError(t, chunks.BatchCreate(ctx, rows))

	list, err := chunks.ListByDocument(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c1", list[0].ID) // ordered by ordinal

	require.NoError(t, chunks.UpdateStatus(ctx, "c1", types.IndexingIndexed, ""))
	got, err := chunks.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, types.IndexingIndexed, got.IndexingStatus)

	stale, err := chunks.ListStalePending(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "c2", stale[0].ID)

	require.NoError(t, chunks.DeleteByDocumentID(ctx, "d1"))
	remaining, err := chunks.ListByDocument(ctx, "d1")
	require.NoError(t, err)
	require.Empty(t, remaining)
}
