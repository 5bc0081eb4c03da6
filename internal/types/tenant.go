package types

import (
	"time"

	"gorm.io/gorm"
)

// Tenant is the top-level owner of all other entities in the system.
//
// Invariant: if Status != active, every ApiKey lookup resolving to this
// tenant must fail with TenantDisabled, regardless of the key's own state.
type Tenant struct {
	ID          string       `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string       `json:"name"`
	Status      TenantStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	KBQuota     int64        `json:"kb_quota" gorm:"default:-1"`
	DocQuota    int64        `json:"doc_quota" gorm:"default:-1"`
	StorageMB   int64        `json:"storage_mb_quota" gorm:"default:-1"`
	StorageUsed int64        `json:"storage_used_mb" gorm:"default:0"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// Active reports whether the tenant may serve any request.
func (t *Tenant) Active() bool {
	return t.Status == TenantActive
}

// QuotaExceeded reports whether adding delta more megabytes of storage
// would exceed the tenant's quota. A quota of Unlimited never trips.
func (t *Tenant) QuotaExceeded(deltaMB int64) bool {
	if t.StorageMB == Unlimited {
		return false
	}
	return t.StorageUsed+deltaMB > t.StorageMB
}
