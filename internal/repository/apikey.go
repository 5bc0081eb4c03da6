package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

type apiKeyRepository struct {
	db *gorm.DB
}

func NewApiKeyRepository(db *gorm.DB) interfaces.ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, k *types.ApiKey) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *apiKeyRepository) GetByHashedKey(ctx context.Context, hashed string) (*types.ApiKey, error) {
	var k types.ApiKey
	if err := r.db.WithContext(ctx).Where("hashed_key = ?", hashed).First(&k).Error; err != nil {
		return nil, notFound(err, "api key not found")
	}
	return &k, nil
}

func (r *apiKeyRepository) GetByID(ctx context.Context, id string) (*types.ApiKey, error) {
	var k types.ApiKey
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&k).Error; err != nil {
		return nil, notFound(err, "api key not found")
	}
	return &k, nil
}

func (r *apiKeyRepository) Revoke(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&types.ApiKey{}).Where("id = ?", id).Update("revoked", true).Error
}

func (r *apiKeyRepository) ListByTenant(ctx context.Context, tenantID string) ([]types.ApiKey, error) {
	var keys []types.ApiKey
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

var _ interfaces.ApiKeyRepository = (*apiKeyRepository)(nil)

type adminTokenRepository struct {
	db *gorm.DB
}

func NewAdminTokenRepository(db *gorm.DB) interfaces.AdminTokenRepository {
	return &adminTokenRepository{db: db}
}

func (r *adminTokenRepository) Create(ctx context.Context, t *types.AdminToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *adminTokenRepository) GetByHashedToken(ctx context.Context, hashed string) (*types.AdminToken, error) {
	var t types.AdminToken
	if err := r.db.WithContext(ctx).Where("hashed_token = ?", hashed).First(&t).Error; err != nil {
		return nil, notFound(err, "admin token not found")
	}
	return &t, nil
}

func (r *adminTokenRepository) Revoke(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&types.AdminToken{}).Where("id = ?", id).Update("revoked", true).Error
}

func (r *adminTokenRepository) List(ctx context.Context) ([]types.AdminToken, error) {
	var tokens []types.AdminToken
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

var _ interfaces.AdminTokenRepository = (*adminTokenRepository)(nil)
