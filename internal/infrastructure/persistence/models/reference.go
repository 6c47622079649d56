package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductModel is the subset of the product table the transfer workflow reads
type ProductModel struct {
	AggregateModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_tenant_code,priority:1"`
	Code         string `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_code,priority:2"`
	Name         string `gorm:"type:varchar(200);not null"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"`
	TracksExpiry bool   `gorm:"not null;default:false"`
	TracksSerial bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// Product status values
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// AccountingPeriodModel is a bookkeeping period movements are posted into
type AccountingPeriodModel struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(50);not null"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	IsOpen    bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountingPeriodModel) TableName() string {
	return "accounting_periods"
}

// TenantSettingsModel carries per-tenant defaults
type TenantSettingsModel struct {
	TenantID        uuid.UUID `gorm:"type:uuid;primary_key"`
	DefaultCurrency string    `gorm:"type:varchar(3);not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantSettingsModel) TableName() string {
	return "tenant_settings"
}
