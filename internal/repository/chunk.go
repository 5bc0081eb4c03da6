package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type chunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) interfaces.ChunkRepository {
	return &chunkRepository{db: db}
}

func (r *chunkRepository) BatchCreate(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(chunks, 100).Error
}

func (r *chunkRepository) GetByID(ctx context.Context, id string) (*types.Chunk, error) {
	var c types.Chunk
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err, "chunk not found")
	}
	return &c, nil
}

func (r *chunkRepository) GetByIDs(ctx context.Context, ids []string) ([]types.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var chunks []types.Chunk
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepository) ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error) {
	var chunks []types.Chunk
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("ordinal ASC").Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepository) UpdateStatus(ctx context.Context, chunkID string, status types.IndexingStatus, errMsg string) error {
	return r.db.WithContext(ctx).Model(&types.Chunk{}).Where("id = ?", chunkID).Updates(map[string]any{
		"indexing_status": status,
		"indexing_error":  errMsg,
	}).Error
}

func (r *chunkRepository) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&types.Chunk{}).Error
}

// ListStalePending finds chunks still pending after olderThanSeconds,
// feeding the recovery job's re-ingestion scan (spec.md §5).
func (r *chunkRepository) ListStalePending(ctx context.Context, olderThanSeconds int64, limit int) ([]types.Chunk, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	var chunks []types.Chunk
	err := r.db.WithContext(ctx).
		Where("indexing_status = ? AND updated_at < ?", types.IndexingPending, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

var _ interfaces.ChunkRepository = (*chunkRepository)(nil)
