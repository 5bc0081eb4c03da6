package query

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type fakeKBRepo struct {
	kbs map[string]*types.KnowledgeBase
}

func (f *fakeKBRepo) Create(ctx context.Context, kb *types.KnowledgeBase) error { return nil }
func (f *fakeKBRepo) GetByID(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	kb, ok := f.kbs[id]
	if !ok {
		return nil, errNotFound
	}
	return kb, nil
}
func (f *fakeKBRepo) Update(ctx context.Context, kb *types.KnowledgeBase) error { return nil }
func (f *fakeKBRepo) Delete(ctx context.Context, id string) error              { return nil }
func (f *fakeKBRepo) ListByTenant(ctx context.Context, tenantID string, offset, limit int) ([]types.KnowledgeBase, int64, error) {
	return nil, 0, nil
}
func (f *fakeKBRepo) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	return 0, nil
}

type fakeChunkRepo struct {
	chunks map[string]*types.Chunk
}

func (f *fakeChunkRepo) BatchCreate(ctx context.Context, chunks []types.Chunk) error { return nil }
func (f *fakeChunkRepo) GetByID(ctx context.Context, id string) (*types.Chunk, error) {
	c, ok := f.chunks[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}
func (f *fakeChunkRepo) GetByIDs(ctx context.Context, ids []string) ([]types.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) UpdateStatus(ctx context.Context, chunkID string, status types.IndexingStatus, errMsg string) error {
	return nil
}
func (f *fakeChunkRepo) DeleteByDocumentID(ctx context.Context, documentID string) error { return nil }
func (f *fakeChunkRepo) ListStalePending(ctx context.Context, olderThanSeconds int64, limit int) ([]types.Chunk, error) {
	return nil, nil
}

// fakeRetriever returns a fixed set of hits, ignoring params, so tests can
// assert on what the orchestrator does with whatever comes back.
type fakeRetriever struct {
	name string
	hits []types.Hit
	err  error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	return f.hits, f.err
}
func (f *fakeRetriever) Name() string { return f.name }

type fakeReranker struct {
	order []int // Index values to report, in the order Rerank should emit them
	err   error
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string) ([]interfaces.RankResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]interfaces.RankResult, len(f.order))
	for i, idx := range f.order {
		out[i] = interfaces.RankResult{Index: float64(idx), Score: float64(len(f.order) - i)}
	}
	return out, nil
}
func (f *fakeReranker) ModelID() string { return "fake-rerank" }

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

var errNotFound = notFoundErr{}
