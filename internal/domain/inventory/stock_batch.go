package inventory

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBatch tracks a batch/lot of one product held at one store
type StockBatch struct {
	shared.BaseEntity
	TenantID     uuid.UUID
	StoreID      uuid.UUID
	ProductID    uuid.UUID
	BatchNumber  string
	ExpiryDate   *time.Time
	SerialNumber string
	Quantity     decimal.Decimal
}

// NewStockBatch creates an empty batch record
func NewStockBatch(tenantID, storeID, productID uuid.UUID, batchNumber string, expiry *time.Time, serial string) (*StockBatch, error) {
	if batchNumber == "" {
		return nil, shared.NewValidationError("batch number is required")
	}
	return &StockBatch{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		StoreID:      storeID,
		ProductID:    productID,
		BatchNumber:  batchNumber,
		ExpiryDate:   expiry,
		SerialNumber: serial,
		Quantity:     decimal.Zero,
	}, nil
}

// Add puts quantity into the batch
func (b *StockBatch) Add(quantity decimal.Decimal) {
	b.Quantity = b.Quantity.Add(quantity)
	b.UpdatedAt = time.Now()
}

// Deduct takes quantity out of the batch; the batch may not go negative
func (b *StockBatch) Deduct(quantity decimal.Decimal) error {
	if quantity.GreaterThan(b.Quantity) {
		return shared.NewInsufficientStockError(b.Quantity, quantity).
			WithDetail("batch_number", b.BatchNumber)
	}
	b.Quantity = b.Quantity.Sub(quantity)
	b.UpdatedAt = time.Now()
	return nil
}

// CopyMetadataFrom fills missing expiry and serial data from another batch of the same number
func (b *StockBatch) CopyMetadataFrom(other *StockBatch) {
	if other == nil {
		return
	}
	if b.ExpiryDate == nil && other.ExpiryDate != nil {
		exp := *other.ExpiryDate
		b.ExpiryDate = &exp
	}
	if b.SerialNumber == "" {
		b.SerialNumber = other.SerialNumber
	}
}

// IsExpired returns true if the batch has expired
func (b *StockBatch) IsExpired() bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(time.Now())
}
