// Package identity authenticates API keys into request contexts and
// enforces the per-key sliding-window rate limit.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Resolver authenticates a raw "Authorization: Bearer <key>" credential
// into a RequestContext, following the teacher's X-API-Key -> tenant
// lookup flow but keyed on a hashed ApiKey record instead of a plain
// tenant-ID-encoding string.
type Resolver struct {
	apiKeys interfaces.ApiKeyRepository
	tenants interfaces.TenantRepository
}

func NewResolver(apiKeys interfaces.ApiKeyRepository, tenants interfaces.TenantRepository) *Resolver {
	return &Resolver{apiKeys: apiKeys, tenants: tenants}
}

// HashKey digests a plaintext api-key for lookup and storage. A
// deterministic digest is required because keys must be findable by exact
// match on every request without re-deriving a salted hash per row; see
// DESIGN.md for why sha256 rather than a password-hashing KDF is correct
// here.
func HashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Resolve validates credential and returns the RequestContext it grants.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*types.RequestContext, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return nil, apperrors.NewAuthInvalidError("missing credential")
	}

	key, err := r.apiKeys.GetByHashedKey(ctx, HashKey(credential))
	if err != nil {
		return nil, apperrors.NewAuthInvalidError("invalid api key")
	}
	if !key.Valid(time.Now()) {
		return nil, apperrors.NewAuthInvalidError("api key revoked or expired")
	}

	tenant, err := r.tenants.GetByID(ctx, key.TenantID)
	if err != nil {
		return nil, apperrors.NewAuthInvalidError("invalid api key")
	}
	if !tenant.Active() {
		return nil, apperrors.NewTenantDisabledError("tenant is not active")
	}

	return &types.RequestContext{
		TenantID:        key.TenantID,
		ApiKeyID:        key.ID,
		Role:            key.Role,
		ScopeKBIDs:      key.ScopeKBIDs,
		Identity:        key.Identity(),
		RateLimitPerMin: key.RateLimitPerMin,
	}, nil
}
