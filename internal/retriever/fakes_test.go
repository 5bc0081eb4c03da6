package retriever

import (
	"context"
	"strings"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// fakeDenseStore returns a fixed set of hits for any vector search,
// ignoring the vector itself (test inputs key on chunk metadata only).
type fakeDenseStore struct {
	hits []types.Hit
	err  error
}

func (f *fakeDenseStore) Upsert(ctx context.Context, chunkID string, vector []float32, meta map[string]any) error {
	return nil
}
func (f *fakeDenseStore) BatchUpsert(ctx context.Context, chunkIDs []string, vectors [][]float32, metas []map[string]any) error {
	return nil
}
func (f *fakeDenseStore) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error { return nil }
func (f *fakeDenseStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return nil
}
func (f *fakeDenseStore) Search(ctx context.Context, vector []float32, topK int, filter interfaces.StoreFilter) ([]types.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Hit, len(f.hits))
	copy(out, f.hits)
	return out, nil
}

// fakeSparseStore does a naive substring match over an in-memory corpus,
// unless fixed hits are supplied for deterministic scoring scenarios.
type fakeSparseStore struct {
	docs  map[string]string // chunkID -> text
	fixed []types.Hit
	err   error
}

func (f *fakeSparseStore) Upsert(ctx context.Context, chunkID, text string, meta map[string]any) error {
	return nil
}
func (f *fakeSparseStore) BatchUpsert(ctx context.Context, chunkIDs []string, texts []string, metas []map[string]any) error {
	return nil
}
func (f *fakeSparseStore) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error { return nil }
func (f *fakeSparseStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return nil
}
func (f *fakeSparseStore) Search(ctx context.Context, query string, topK int, filter interfaces.StoreFilter) ([]types.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.fixed != nil {
		out := make([]types.Hit, len(f.fixed))
		copy(out, f.fixed)
		return out, nil
	}
	out := []types.Hit{}
	for id, text := range f.docs {
		if strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
			out = append(out, types.Hit{ChunkID: id, Text: text, Score: float64(strings.Count(strings.ToLower(text), strings.ToLower(query)))})
		}
	}
	return out, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}
func (fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}
func (fakeEmbedder) Dimensions() int  { return 3 }
func (fakeEmbedder) ModelID() string { return "fake-embed" }

type fakeChat struct {
	response string
	err      error
}

func (f *fakeChat) Chat(ctx context.Context, messages []interfaces.ChatMessage, opts interfaces.ChatOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}
func (f *fakeChat) ModelID() string { return "fake-chat" }

type fakeReranker struct {
	scores map[string]float64 // text -> score
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string) ([]interfaces.RankResult, error) {
	out := make([]interfaces.RankResult, len(documents))
	for i, d := range documents {
		out[i] = interfaces.RankResult{Index: float64(i), Score: f.scores[d]}
	}
	return out, nil
}
func (f *fakeReranker) ModelID() string { return "fake-rerank" }

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

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }
