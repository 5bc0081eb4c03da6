package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type knowledgeBaseRepository struct {
	db *gorm.DB
}

func NewKnowledgeBaseRepository(db *gorm.DB) interfaces.KnowledgeBaseRepository {
	return &knowledgeBaseRepository{db: db}
}

func (r *knowledgeBaseRepository) Create(ctx context.Context, kb *types.KnowledgeBase) error {
	return r.db.WithContext(ctx).Create(kb).Error
}

func (r *knowledgeBaseRepository) GetByID(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	var kb types.KnowledgeBase
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&kb).Error; err != nil {
		return nil, notFound(err, "knowledge base not found")
	}
	return &kb, nil
}

func (r *knowledgeBaseRepository) Update(ctx context.Context, kb *types.KnowledgeBase) error {
	return r.db.WithContext(ctx).Model(&types.KnowledgeBase{}).Where("id = ?", kb.ID).Updates(kb).Error
}

func (r *knowledgeBaseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&types.KnowledgeBase{}).Error
}

func (r *knowledgeBaseRepository) ListByTenant(ctx context.Context, tenantID string, offset, limit int) ([]types.KnowledgeBase, int64, error) {
	var kbs []types.KnowledgeBase
	var total int64
	q := r.db.WithContext(ctx).Model(&types.KnowledgeBase{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&kbs).Error; err != nil {
		return nil, 0, err
	}
	return kbs, total, nil
}

func (r *knowledgeBaseRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&types.KnowledgeBase{}).Where("tenant_id = ?", tenantID).Count(&total).Error
	return total, err
}

var _ interfaces.KnowledgeBaseRepository = (*knowledgeBaseRepository)(nil)
