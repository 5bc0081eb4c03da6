package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) interfaces.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, d *types.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*types.Document, error) {
	var d types.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err, "document not found")
	}
	return &d, nil
}

func (r *documentRepository) GetByContentHash(ctx context.Context, kbID, hash string) (*types.Document, error) {
	var d types.Document
	err := r.db.WithContext(ctx).
		Where("knowledge_base_id = ? AND content_hash = ?", kbID, hash).
		First(&d).Error
	if err != nil {
		return nil, notFound(err, "document not found")
	}
	return &d, nil
}

func (r *documentRepository) Update(ctx context.Context, d *types.Document) error {
	return r.db.WithContext(ctx).Model(&types.Document{}).Where("id = ?", d.ID).Updates(d).Error
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&types.Document{}).Error
}

func (r *documentRepository) ListByKnowledgeBase(ctx context.Context, kbID string, offset, limit int) ([]types.Document, int64, error) {
	var docs []types.Document
	var total int64
	q := r.db.WithContext(ctx).Model(&types.Document{}).Where("knowledge_base_id = ?", kbID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *documentRepository) CountByKnowledgeBase(ctx context.Context, kbID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&types.Document{}).Where("knowledge_base_id = ?", kbID).Count(&total).Error
	return total, err
}

var _ interfaces.DocumentRepository = (*documentRepository)(nil)
