package models

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel holds the identity and timestamp columns of every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// NewBaseModel copies an entity's identity columns
func NewBaseModel(e shared.BaseEntity) BaseModel {
	return BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// Entity rebuilds the domain identity
func (m BaseModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// AggregateModel adds the optimistic lock version.
// Tenant-owned models declare their own tenant_id column so composite indexes
// can lead with it.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// NewAggregateModel copies an aggregate's identity and version
func NewAggregateModel(a shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{BaseModel: NewBaseModel(a.BaseEntity), Version: a.Version}
}

// Aggregate rebuilds the domain root with no pending events
func (m AggregateModel) Aggregate() shared.BaseAggregateRoot {
	return shared.RestoreAggregateRoot(m.Entity(), m.Version)
}
