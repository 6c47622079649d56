package inventory

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryBalance is the authoritative stock count for one product at one store.
// The identity is TenantID + StoreID + ProductID. Quantity only ever changes
// through Increase and Decrease, and callers must hold the row lock obtained
// from InventoryBalanceRepository.FindForUpdate while doing so.
type InventoryBalance struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal // moving weighted average
	Version   int
}

// NewInventoryBalance creates an empty balance record
func NewInventoryBalance(tenantID, storeID, productID uuid.UUID) (*InventoryBalance, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrMissingTenant
	}
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("store id is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product id is required")
	}
	return &InventoryBalance{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		StoreID:    storeID,
		ProductID:  productID,
		Quantity:   decimal.Zero,
		UnitCost:   decimal.Zero,
		Version:    1,
	}, nil
}

// Key returns the lock key of the balance
func (b *InventoryBalance) Key() BalanceKey {
	return BalanceKey{TenantID: b.TenantID, StoreID: b.StoreID, ProductID: b.ProductID}
}

// CanFulfill reports whether quantity can be taken out of the balance
func (b *InventoryBalance) CanFulfill(quantity decimal.Decimal) bool {
	return quantity.LessThanOrEqual(b.Quantity)
}

// Decrease takes quantity out of the balance.
// Returns an insufficient stock error carrying the current quantity when it would go negative.
func (b *InventoryBalance) Decrease(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewValidationError("quantity cannot be negative")
	}
	if !b.CanFulfill(quantity) {
		return shared.NewInsufficientStockError(b.Quantity, quantity).
			WithDetail("store_id", b.StoreID.String()).
			WithDetail("product_id", b.ProductID.String())
	}
	b.Quantity = b.Quantity.Sub(quantity)
	b.touch()
	return nil
}

// Increase adds quantity to the balance and folds unitCost into the moving average.
// A zero unitCost leaves the cost basis untouched.
func (b *InventoryBalance) Increase(quantity, unitCost decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewValidationError("quantity cannot be negative")
	}
	if unitCost.IsNegative() {
		return shared.NewValidationError("unit cost cannot be negative")
	}
	if quantity.IsZero() {
		return nil
	}

	if unitCost.IsPositive() {
		if b.Quantity.LessThanOrEqual(decimal.Zero) {
			b.UnitCost = unitCost
		} else {
			// (old qty * old cost + new qty * new cost) / (old qty + new qty)
			total := b.Quantity.Mul(b.UnitCost).Add(quantity.Mul(unitCost))
			b.UnitCost = total.Div(b.Quantity.Add(quantity)).Round(4)
		}
	}
	b.Quantity = b.Quantity.Add(quantity)
	b.touch()
	return nil
}

// TotalValue returns quantity times the cost basis
func (b *InventoryBalance) TotalValue() decimal.Decimal {
	return b.Quantity.Mul(b.UnitCost)
}

func (b *InventoryBalance) touch() {
	b.UpdatedAt = time.Now()
	b.Version++
}

// BalanceKey identifies a balance row for locking and lookups
type BalanceKey struct {
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
}

// String renders the key for lock names and log fields
func (k BalanceKey) String() string {
	return k.TenantID.String() + ":" + k.StoreID.String() + ":" + k.ProductID.String()
}

// Less orders keys so that multi-row locking always follows one global order
func (k BalanceKey) Less(other BalanceKey) bool {
	if k.TenantID != other.TenantID {
		return k.TenantID.String() < other.TenantID.String()
	}
	if k.StoreID != other.StoreID {
		return k.StoreID.String() < other.StoreID.String()
	}
	return k.ProductID.String() < other.ProductID.String()
}
