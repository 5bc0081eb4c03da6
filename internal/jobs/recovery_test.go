package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type fakeChunkRepo struct {
	stale []types.Chunk
	err   error
}

func (f *fakeChunkRepo) BatchCreate(ctx context.Context, chunks []types.Chunk) error { return nil }
func (f *fakeChunkRepo) GetByID(ctx context.Context, id string) (*types.Chunk, error) {
	return nil, nil
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
	return f.stale, f.err
}

type fakeIngestor struct {
	calls []string
	err   error
}

func (f *fakeIngestor) Ingest(ctx context.Context, req interfaces.IngestRequest) (*types.ChunkingResult, error) {
	f.calls = append(f.calls, req.DocumentID)
	return &types.ChunkingResult{}, f.err
}

func TestRecoveryHandlerReingestsEachStaleDocumentOnce(t *testing.T) {
	chunks := &fakeChunkRepo{stale: []types.Chunk{
		{ID: "c1", DocumentID: "doc-1"},
		{ID: "c2", DocumentID: "doc-1"},
		{ID: "c3", DocumentID: "doc-2"},
	}}
	ingestor := &fakeIngestor{}

	h := NewRecoveryHandler(Config{}, chunks, ingestor)
	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskTypeRecoverStaleChunks, nil))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"doc-1", "doc-2"}, ingestor.calls)
}

func TestRecoveryHandlerPropagatesListError(t *testing.T) {
	chunks := &fakeChunkRepo{err: context.DeadlineExceeded}
	h := NewRecoveryHandler(Config{}, chunks, &fakeIngestor{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskTypeRecoverStaleChunks, nil))
	require.Error(t, err)
}

func TestRecoveryHandlerContinuesPastIndividualIngestFailure(t *testing.T) {
	chunks := &fakeChunkRepo{stale: []types.Chunk{{ID: "c1", DocumentID: "doc-1"}, {ID: "c2", DocumentID: "doc-2"}}}
	ingestor := &fakeIngestor{err: context.Canceled}

	h := NewRecoveryHandler(Config{}, chunks, ingestor)
	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskTypeRecoverStaleChunks, nil))
	require.NoError(t, err) // per-document failures are logged, not fatal to the scan
	require.Len(t, ingestor.calls, 2)
}
