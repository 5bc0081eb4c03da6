package sparse

import (
	"context"
	"testing"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndSearchFindsMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, "c1", "the quick brown fox jumps over the lazy dog", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1",
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "fox", 10, interfaces.StoreFilter{TenantID: "t1", KnowledgeBaseIDs: []string{"kb1"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "c1", hits[0].ChunkID)
	require.Equal(t, types.SourceBM25, hits[0].Source)
}

func TestSearchScopesToTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c1", "shared wording across tenants", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1",
	}))
	require.NoError(t, s.Upsert(ctx, "c2", "shared wording across tenants", map[string]any{
		"tenant_id": "t2", "kb_id": "kb2", "doc_id": "d2",
	}))

	hits, err := s.Search(ctx, "shared wording", 10, interfaces.StoreFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "c1", hits[0].ChunkID)
}

func TestSearchACLFiltersByAllowUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c1", "restricted confidential figures", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1",
		"acl_allow_users": types.StringList{"alice"},
	}))

	bobFilter := interfaces.StoreFilter{
		TenantID: "t1", HasIdentity: true, IdentityUser: "bob",
	}
	hits, err := s.Search(ctx, "restricted figures", 10, bobFilter)
	require.NoError(t, err)
	require.Empty(t, hits)

	aliceFilter := interfaces.StoreFilter{
		TenantID: "t1", HasIdentity: true, IdentityUser: "alice",
	}
	hits, err = s.Search(ctx, "restricted figures", 10, aliceFilter)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSearchACLFiltersBySensitivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c1", "top secret launch codes", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1",
		"sensitivity_level": int(types.ClearanceSecret),
	}))

	low := interfaces.StoreFilter{TenantID: "t1", HasIdentity: true, IdentityClearance: types.ClearancePublic}
	hits, err := s.Search(ctx, "launch codes", 10, low)
	require.NoError(t, err)
	require.Empty(t, hits)

	high := interfaces.StoreFilter{TenantID: "t1", HasIdentity: true, IdentityClearance: types.ClearanceSecret}
	hits, err = s.Search(ctx, "launch codes", 10, high)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSystemCallBypassesACL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "c1", "top secret launch codes", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1",
		"sensitivity_level": int(types.ClearanceSecret),
	}))

	hits, err := s.Search(ctx, "launch codes", 10, interfaces.StoreFilter{TenantID: "t1", HasIdentity: false})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestChildOnlyFiltersToChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "parent1", "parent scoped summary text", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1", "child": false,
	}))
	require.NoError(t, s.Upsert(ctx, "child1", "parent scoped summary text detail", map[string]any{
		"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1", "child": true, "parent_id": "parent1",
	}))

	hits, err := s.Search(ctx, "summary text", 10, interfaces.StoreFilter{TenantID: "t1", ChildOnly: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "child1", hits[0].ChunkID)
}

func TestDeleteByDocumentIDRemovesChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BatchUpsert(ctx,
		[]string{"c1", "c2"},
		[]string{"alpha beta gamma", "alpha beta gamma"},
		[]map[string]any{
			{"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d1"},
			{"tenant_id": "t1", "kb_id": "kb1", "doc_id": "d2"},
		},
	))

	require.NoError(t, s.DeleteByDocumentID(ctx, "d1"))

	hits, err := s.Search(ctx, "alpha beta gamma", 10, interfaces.StoreFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "c2", hits[0].ChunkID)
}
