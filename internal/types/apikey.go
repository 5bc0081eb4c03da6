package types

import (
	"time"

	"gorm.io/gorm"
)

// ApiKey is a tenant-scoped bearer credential. The plaintext key is never
// stored; only HashedKey (a one-way digest) and Prefix (for listing) are.
type ApiKey struct {
	ID                string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID          string         `json:"tenant_id" gorm:"index"`
	HashedKey         string         `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	Prefix            string         `json:"prefix" gorm:"type:varchar(16)"`
	Role              Role           `json:"role" gorm:"type:varchar(10)"`
	ScopeKBIDs        StringList     `json:"scope_kb_ids" gorm:"type:json"`
	IdentityUser      string         `json:"identity_user"`
	IdentityRoles     StringList     `json:"identity_roles" gorm:"type:json"`
	IdentityGroups    StringList     `json:"identity_groups" gorm:"type:json"`
	IdentityClearance Clearance      `json:"identity_clearance"`
	RateLimitPerMin   *int           `json:"rate_limit_per_minute"`
	Revoked           bool           `json:"revoked" gorm:"default:false"`
	ExpiresAt         *time.Time     `json:"expires_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// Identity reconstructs the Identity record carried by this key.
func (k *ApiKey) Identity() Identity {
	return Identity{
		User:      k.IdentityUser,
		Roles:     k.IdentityRoles,
		Groups:    k.IdentityGroups,
		Clearance: k.IdentityClearance,
	}
}

// Expired reports whether the key's expiry, if set, has passed.
func (k *ApiKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// Valid reports whether the key may still be used to authenticate.
func (k *ApiKey) Valid(now time.Time) bool {
	return !k.Revoked && !k.Expired(now)
}

// AdminToken authenticates tenant-management endpoints only; it has no
// tenant owner.
type AdminToken struct {
	ID          string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	HashedToken string         `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	Prefix      string         `json:"prefix" gorm:"type:varchar(16)"`
	Revoked     bool           `json:"revoked" gorm:"default:false"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *AdminToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

func (t *AdminToken) Valid(now time.Time) bool {
	return !t.Revoked && !t.Expired(now)
}
