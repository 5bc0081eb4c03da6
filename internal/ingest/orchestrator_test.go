package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kbvault/kbvault/internal/chunkers"
	"github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeDocumentRepo, *fakeKBRepo, *fakeTenantRepo, *fakeChunkRepo, *fakeDenseStore, *fakeSparseStore, *fakeEmbedder) {
	t.Helper()

	docs := &fakeDocumentRepo{docs: map[string]*types.Document{}}
	kbs := &fakeKBRepo{kbs: map[string]*types.KnowledgeBase{}}
	tenants := &fakeTenantRepo{tenants: map[string]*types.Tenant{}}
	chunkRepo := newFakeChunkRepo()
	dense := &fakeDenseStore{}
	sparse := &fakeSparseStore{}
	embedder := &fakeEmbedder{}

	o := NewOrchestrator(
		Config{EmbedTimeout: time.Second, EmbedMaxTries: 3, EmbedBatchSize: 4},
		docs, kbs, tenants, chunkRepo,
		chunkers.NewDefaultRegistry(),
		dense, sparse,
		func(string) (interfaces.Embedder, error) { return embedder, nil },
	)
	return o, docs, kbs, tenants, chunkRepo, dense, sparse, embedder
}

func seedDocAndKB(docs *fakeDocumentRepo, kbs *fakeKBRepo, tenants *fakeTenantRepo, content string) (*types.Document, *types.KnowledgeBase) {
	kb := &types.KnowledgeBase{
		ID:       "kb-1",
		TenantID: "tenant-1",
		ChunkerConfig: types.JSON{"type": "simple", "chunk_size": float64(10)},
		EmbeddingConfig: types.JSON{"model_id": "fake-embed", "dimensions": float64(3)},
	}
	kbs.kbs[kb.ID] = kb

	doc := &types.Document{
		ID:              "doc-1",
		TenantID:        "tenant-1",
		KnowledgeBaseID: kb.ID,
		Title:           "doc",
		Content:         content,
		Sensitivity:     types.ClearanceInternal,
		AllowRoles:      types.StringList{"eng"},
	}
	docs.docs[doc.ID] = doc

	tenants.tenants[kb.TenantID] = &types.Tenant{ID: kb.TenantID, Status: types.TenantActive, StorageMB: types.Unlimited}
	return doc, kb
}

func TestIngestChunksPersistsEmbedsAndIndexes(t *testing.T) {
	o, docs, kbs, tenants, chunkRepo, dense, sparse, embedder := newTestOrchestrator(t)
	doc, _ := seedDocAndKB(docs, kbs, tenants, "0123456789abcdefghij") // 20 chars -> two 10-char pieces

	result, err := o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.NoError(t, err)
	require.Len(t, result.Pieces, 2)

	require.Len(t, chunkRepo.created, 2)
	require.Len(t, dense.upsertedIDs, 2)
	require.Len(t, sparse.upsertedIDs, 2)
	require.Equal(t, 1, embedder.calls)

	for _, c := range chunkRepo.created {
		require.Equal(t, types.IndexingIndexed, chunkRepo.status[c.ID])
		require.Equal(t, int(types.ClearanceInternal), c.Metadata["sensitivity_level"])
		require.Equal(t, types.StringList{"eng"}, c.Metadata["acl_allow_roles"])
		require.Equal(t, doc.ID, c.Metadata["doc_id"])
	}
}

func TestIngestEmbeddingFailureMarksChunksFailed(t *testing.T) {
	o, docs, kbs, tenants, chunkRepo, _, _, embedder := newTestOrchestrator(t)
	doc, _ := seedDocAndKB(docs, kbs, tenants, "some short text")
	embedder.err = errTransient
	embedder.failsFirst = 99 // always fails within the bounded retry budget

	_, err := o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.NoError(t, err) // partial indexing is not itself a call error

	for _, c := range chunkRepo.created {
		require.Equal(t, types.IndexingFailed, chunkRepo.status[c.ID])
		require.NotEmpty(t, chunkRepo.errMsgs[c.ID])
	}
}

func TestIngestRetriesTransientEmbeddingFailure(t *testing.T) {
	o, docs, kbs, tenants, chunkRepo, dense, _, embedder := newTestOrchestrator(t)
	doc, _ := seedDocAndKB(docs, kbs, tenants, "some short text")
	embedder.failsFirst = 2 // fails twice, succeeds on the third try

	_, err := o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.NoError(t, err)

	for _, c := range chunkRepo.created {
		require.Equal(t, types.IndexingIndexed, chunkRepo.status[c.ID])
	}
	require.NotEmpty(t, dense.upsertedIDs)
	require.Equal(t, 3, embedder.calls)
}

func TestIngestQuotaExceededRejectsBeforePersisting(t *testing.T) {
	o, docs, kbs, tenants, chunkRepo, _, _, _ := newTestOrchestrator(t)
	doc, kb := seedDocAndKB(docs, kbs, tenants, "0123456789abcdefghij")
	tenants.tenants[kb.TenantID].StorageMB = 0
	tenants.tenants[kb.TenantID].StorageUsed = 0

	_, err := o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.Error(t, err)
	appErr, ok := errors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, errors.CodeQuotaExceeded, appErr.Code)
	require.Empty(t, chunkRepo.created)
}

func TestReingestDeletesPreviousChunksFirst(t *testing.T) {
	o, docs, kbs, tenants, chunkRepo, dense, sparse, _ := newTestOrchestrator(t)
	doc, _ := seedDocAndKB(docs, kbs, tenants, "0123456789")

	_, err := o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.NoError(t, err)
	require.Len(t, chunkRepo.created, 1)

	_, err = o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.NoError(t, err)

	require.Contains(t, dense.deletedDocs, doc.ID)
	require.Contains(t, sparse.deletedDocs, doc.ID)
	require.Len(t, chunkRepo.created, 1) // old chunk row removed, one fresh row persisted
}

func TestIngestParentChildLinksParentIDByOrdinal(t *testing.T) {
	o, docs, kbs, tenants, chunkRepo, _, _, _ := newTestOrchestrator(t)
	kb := &types.KnowledgeBase{
		ID:              "kb-pc",
		TenantID:        "tenant-1",
		ChunkerConfig:   types.JSON{"type": "parent_child", "parent_size": float64(40), "chunk_size": float64(10)},
		EmbeddingConfig: types.JSON{"model_id": "fake-embed"},
	}
	kbs.kbs[kb.ID] = kb
	doc := &types.Document{ID: "doc-pc", TenantID: kb.TenantID, KnowledgeBaseID: kb.ID, Content: "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"}
	docs.docs[doc.ID] = doc
	tenants.tenants[kb.TenantID] = &types.Tenant{ID: kb.TenantID, Status: types.TenantActive, StorageMB: types.Unlimited}

	_, err := o.Ingest(context.Background(), interfaces.IngestRequest{DocumentID: doc.ID})
	require.NoError(t, err)

	var sawChild bool
	for _, c := range chunkRepo.created {
		if c.Type == types.ChunkTypeChild {
			sawChild = true
			require.NotEmpty(t, c.ParentChunkID)
			require.Equal(t, true, c.Metadata["child"])
		}
	}
	require.True(t, sawChild)
}
