package ingest

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type fakeDocumentRepo struct {
	docs map[string]*types.Document
}

func (f *fakeDocumentRepo) Create(ctx context.Context, d *types.Document) error {
	f.docs[d.ID] = d
	return nil
}
func (f *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*types.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, errNotFound
	}
	return d, nil
}
func (f *fakeDocumentRepo) GetByContentHash(ctx context.Context, kbID, hash string) (*types.Document, error) {
	for _, d := range f.docs {
		if d.KnowledgeBaseID == kbID && d.ContentHash == hash {
			return d, nil
		}
	}
	return nil, errNotFound
}
func (f *fakeDocumentRepo) Update(ctx context.Context, d *types.Document) error {
	f.docs[d.ID] = d
	return nil
}
func (f *fakeDocumentRepo) Delete(ctx context.Context, id string) error {
	delete(f.docs, id)
	return nil
}
func (f *fakeDocumentRepo) ListByKnowledgeBase(ctx context.Context, kbID string, offset, limit int) ([]types.Document, int64, error) {
	return nil, 0, nil
}
func (f *fakeDocumentRepo) CountByKnowledgeBase(ctx context.Context, kbID string) (int64, error) {
	return 0, nil
}

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

type fakeTenantRepo struct {
	tenants map[string]*types.Tenant
}

func (f *fakeTenantRepo) Create(ctx context.Context, t *types.Tenant) error { return nil }
func (f *fakeTenantRepo) GetByID(ctx context.Context, id string) (*types.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, errNotFound
	}
	return t, nil
}
func (f *fakeTenantRepo) Update(ctx context.Context, t *types.Tenant) error {
	f.tenants[t.ID] = t
	return nil
}
func (f *fakeTenantRepo) List(ctx context.Context, offset, limit int) ([]types.Tenant, int64, error) {
	return nil, 0, nil
}

type fakeChunkRepo struct {
	created []types.Chunk
	status  map[string]types.IndexingStatus
	errMsgs map[string]string
	deleted []string
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{status: map[string]types.IndexingStatus{}, errMsgs: map[string]string{}}
}

func (f *fakeChunkRepo) BatchCreate(ctx context.Context, chunks []types.Chunk) error {
	f.created = append(f.created, chunks...)
	for _, c := range chunks {
		f.status[c.ID] = c.IndexingStatus
	}
	return nil
}
func (f *fakeChunkRepo) GetByID(ctx context.Context, id string) (*types.Chunk, error) {
	for _, c := range f.created {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, errNotFound
}
func (f *fakeChunkRepo) GetByIDs(ctx context.Context, ids []string) ([]types.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error) {
	var out []types.Chunk
	for _, c := range f.created {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeChunkRepo) UpdateStatus(ctx context.Context, chunkID string, status types.IndexingStatus, errMsg string) error {
	f.status[chunkID] = status
	f.errMsgs[chunkID] = errMsg
	return nil
}
func (f *fakeChunkRepo) DeleteByDocumentID(ctx context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	kept := f.created[:0]
	for _, c := range f.created {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	f.created = kept
	return nil
}
func (f *fakeChunkRepo) ListStalePending(ctx context.Context, olderThanSeconds int64, limit int) ([]types.Chunk, error) {
	return nil, nil
}

type fakeDenseStore struct {
	upsertedIDs []string
	deletedDocs []string
	err         error
}

func (f *fakeDenseStore) Upsert(ctx context.Context, chunkID string, vector []float32, meta map[string]any) error {
	return nil
}
func (f *fakeDenseStore) BatchUpsert(ctx context.Context, chunkIDs []string, vectors [][]float32, metas []map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.upsertedIDs = append(f.upsertedIDs, chunkIDs...)
	return nil
}
func (f *fakeDenseStore) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error { return nil }
func (f *fakeDenseStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return nil
}
func (f *fakeDenseStore) Search(ctx context.Context, vector []float32, topK int, filter interfaces.StoreFilter) ([]types.Hit, error) {
	return nil, nil
}

type fakeSparseStore struct {
	upsertedIDs []string
	deletedDocs []string
	err         error
}

func (f *fakeSparseStore) Upsert(ctx context.Context, chunkID, text string, meta map[string]any) error {
	return nil
}
func (f *fakeSparseStore) BatchUpsert(ctx context.Context, chunkIDs []string, texts []string, metas []map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.upsertedIDs = append(f.upsertedIDs, chunkIDs...)
	return nil
}
func (f *fakeSparseStore) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error { return nil }
func (f *fakeSparseStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return nil
}
func (f *fakeSparseStore) Search(ctx context.Context, query string, topK int, filter interfaces.StoreFilter) ([]types.Hit, error) {
	return nil, nil
}

type fakeEmbedder struct {
	err        error
	calls      int
	failsFirst int // fails this many times before succeeding, for retry tests
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}
func (f *fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failsFirst {
		return nil, errTransient
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int  { return 3 }
func (f *fakeEmbedder) ModelID() string { return "fake-embed" }

var errNotFound = notFoundErr{}
var errTransient = transientErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

type transientErr struct{}

func (transientErr) Error() string { return "transient upstream failure" }
