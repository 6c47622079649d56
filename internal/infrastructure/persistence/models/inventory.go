package models

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryBalanceModel is the persistence model for InventoryBalance
type InventoryBalanceModel struct {
	BaseModel
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_tenant_store_product,priority:1"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_tenant_store_product,priority:2"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_tenant_store_product,priority:3"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Version   int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (InventoryBalanceModel) TableName() string {
	return "inventory_balances"
}

// ToDomain converts the persistence model to a domain InventoryBalance
func (m *InventoryBalanceModel) ToDomain() *inventory.InventoryBalance {
	return &inventory.InventoryBalance{
		BaseEntity: m.Entity(),
		TenantID:   m.TenantID,
		StoreID:    m.StoreID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
		UnitCost:   m.UnitCost,
		Version:    m.Version,
	}
}

// FromDomain populates the persistence model from a domain InventoryBalance
func (m *InventoryBalanceModel) FromDomain(b *inventory.InventoryBalance) {
	m.BaseModel = NewBaseModel(b.BaseEntity)
	m.TenantID = b.TenantID
	m.StoreID = b.StoreID
	m.ProductID = b.ProductID
	m.Quantity = b.Quantity
	m.UnitCost = b.UnitCost
	m.Version = b.Version
}

// InventoryBalanceModelFromDomain creates a persistence model from a domain InventoryBalance
func InventoryBalanceModelFromDomain(b *inventory.InventoryBalance) *InventoryBalanceModel {
	m := &InventoryBalanceModel{}
	m.FromDomain(b)
	return m
}

// MovementTypeModel is a named movement type row referenced by ledger entries
type MovementTypeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Inbound   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MovementTypeModel) TableName() string {
	return "movement_types"
}

// MovementLedgerModel is the persistence model for MovementLedgerEntry.
// Rows are never updated.
type MovementLedgerModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_source,priority:1"`
	StoreID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_store_product,priority:1"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_store_product,priority:2"`
	MovementTypeID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	MovementType    string          `gorm:"type:varchar(50);not null"`
	QuantityIn      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityOut     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3)"`
	SourceType      string          `gorm:"type:varchar(50);not null;index:idx_movement_source,priority:2"`
	SourceID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_source,priority:3"`
	SourceLineID    uuid.UUID       `gorm:"type:uuid;not null"`
	ReferenceNumber string          `gorm:"type:varchar(50);not null"`
	PeriodID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber     string          `gorm:"type:varchar(50)"`
	Note            string          `gorm:"type:text"`
	OperatorID      *uuid.UUID      `gorm:"type:uuid"`
	MovedAt         time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MovementLedgerModel) TableName() string {
	return "inventory_movements"
}

// ToDomain converts the persistence model to a domain MovementLedgerEntry
func (m *MovementLedgerModel) ToDomain() *inventory.MovementLedgerEntry {
	movementType, _ := inventory.ParseMovementType(m.MovementType)
	return &inventory.MovementLedgerEntry{
		ID:              m.ID,
		TenantID:        m.TenantID,
		StoreID:         m.StoreID,
		ProductID:       m.ProductID,
		MovementType:    movementType,
		MovementTypeID:  m.MovementTypeID,
		QuantityIn:      m.QuantityIn,
		QuantityOut:     m.QuantityOut,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		UnitCost:        m.UnitCost,
		Currency:        m.Currency,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		SourceLineID:    m.SourceLineID,
		ReferenceNumber: m.ReferenceNumber,
		PeriodID:        m.PeriodID,
		BatchNumber:     m.BatchNumber,
		Note:            m.Note,
		OperatorID:      m.OperatorID,
		MovedAt:         m.MovedAt,
	}
}

// MovementLedgerModelFromDomain creates a persistence model from a domain MovementLedgerEntry
func MovementLedgerModelFromDomain(e *inventory.MovementLedgerEntry) *MovementLedgerModel {
	return &MovementLedgerModel{
		ID:              e.ID,
		TenantID:        e.TenantID,
		StoreID:         e.StoreID,
		ProductID:       e.ProductID,
		MovementTypeID:  e.MovementTypeID,
		MovementType:    e.MovementType.Name(),
		QuantityIn:      e.QuantityIn,
		QuantityOut:     e.QuantityOut,
		BalanceBefore:   e.BalanceBefore,
		BalanceAfter:    e.BalanceAfter,
		UnitCost:        e.UnitCost,
		Currency:        e.Currency,
		SourceType:      e.SourceType,
		SourceID:        e.SourceID,
		SourceLineID:    e.SourceLineID,
		ReferenceNumber: e.ReferenceNumber,
		PeriodID:        e.PeriodID,
		BatchNumber:     e.BatchNumber,
		Note:            e.Note,
		OperatorID:      e.OperatorID,
		MovedAt:         e.MovedAt,
	}
}

// StockBatchModel is the persistence model for StockBatch
type StockBatchModel struct {
	BaseModel
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_store_product_number,priority:1"`
	StoreID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_store_product_number,priority:2"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_store_product_number,priority:3"`
	BatchNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_batch_store_product_number,priority:4"`
	ExpiryDate   *time.Time      `gorm:"type:date;index"`
	SerialNumber string          `gorm:"type:varchar(100)"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	return &inventory.StockBatch{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:     m.TenantID,
		StoreID:      m.StoreID,
		ProductID:    m.ProductID,
		BatchNumber:  m.BatchNumber,
		ExpiryDate:   m.ExpiryDate,
		SerialNumber: m.SerialNumber,
		Quantity:     m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain StockBatch
func (m *StockBatchModel) FromDomain(b *inventory.StockBatch) {
	m.BaseModel = NewBaseModel(b.BaseEntity)
	m.TenantID = b.TenantID
	m.StoreID = b.StoreID
	m.ProductID = b.ProductID
	m.BatchNumber = b.BatchNumber
	m.ExpiryDate = b.ExpiryDate
	m.SerialNumber = b.SerialNumber
	m.Quantity = b.Quantity
}

// StockBatchModelFromDomain creates a persistence model from a domain StockBatch
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{}
	m.FromDomain(b)
	return m
}
