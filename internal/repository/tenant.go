// Package repository implements the gorm-backed relational repositories:
// Tenant, ApiKey, AdminToken, KnowledgeBase, Document, Chunk. CRUD shape
// (WithContext, Where+First, not-found translation) is adapted from the
// teacher's internal/application/repository package.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// notFound translates gorm's sentinel into the application's wire-stable
// AppError, matching the teacher's ErrTenantNotFound-style translation at
// the repository boundary but using the shared error codes instead of a
// per-entity sentinel var.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(message)
	}
	return apperrors.NewInternalServerError(err.Error())
}

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) interfaces.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, t *types.Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*types.Tenant, error) {
	var t types.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err, "tenant not found")
	}
	return &t, nil
}

func (r *tenantRepository) Update(ctx context.Context, t *types.Tenant) error {
	return r.db.WithContext(ctx).Model(&types.Tenant{}).Where("id = ?", t.ID).Updates(t).Error
}

func (r *tenantRepository) List(ctx context.Context, offset, limit int) ([]types.Tenant, int64, error) {
	var tenants []types.Tenant
	var total int64
	if err := r.db.WithContext(ctx).Model(&types.Tenant{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&tenants).Error; err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

var _ interfaces.TenantRepository = (*tenantRepository)(nil)
