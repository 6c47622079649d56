// Package tenant provides GORM scopes that confine queries to one tenant.
package tenant

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant column every tenant-owned table carries
const Column = "tenant_id"

// TenantScope filters by tenant_id. A nil tenant id matches no rows.
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where(Column+" = ?", tenantID)
	}
}

// StoreScope keeps rows where any of the given store columns equals storeID,
// such as a transfer's requesting or issuing side.
func StoreScope(storeID uuid.UUID, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if storeID == uuid.Nil || len(columns) == 0 {
			return db.Where("1 = 0")
		}
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = c + " = ?"
			args[i] = storeID
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
