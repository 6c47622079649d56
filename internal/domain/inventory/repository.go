package inventory

import (
	"context"

	"github.com/google/uuid"
)

// InventoryBalanceRepository defines persistence for balance records.
// The ForUpdate methods must be called inside an open transaction; the lock
// is held until that transaction commits or rolls back.
type InventoryBalanceRepository interface {
	// Find loads a balance without locking it
	Find(ctx context.Context, key BalanceKey) (*InventoryBalance, error)

	// FindForUpdate loads and exclusively locks a balance row.
	// Returns shared.ErrNotFound when the row does not exist.
	FindForUpdate(ctx context.Context, key BalanceKey) (*InventoryBalance, error)

	// GetOrCreateForUpdate creates the row at zero when absent, then locks it
	GetOrCreateForUpdate(ctx context.Context, key BalanceKey) (*InventoryBalance, error)

	// Save persists quantity and cost changes of a locked balance
	Save(ctx context.Context, balance *InventoryBalance) error

	// ListByStore lists balances of a store
	ListByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]InventoryBalance, error)
}

// MovementLedgerRepository is append-only
type MovementLedgerRepository interface {
	// Append stores new ledger entries
	Append(ctx context.Context, entries ...*MovementLedgerEntry) error

	// ListBySource lists the movements written for one source document, oldest first
	ListBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]MovementLedgerEntry, error)

	// CountBySource counts the movements written for one source document
	CountBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) (int64, error)
}

// StockBatchRepository defines persistence for per-store batch records
type StockBatchRepository interface {
	// FindForUpdate loads and locks a batch; returns shared.ErrNotFound when absent
	FindForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID, batchNumber string) (*StockBatch, error)

	// Find loads a batch without locking
	Find(ctx context.Context, tenantID, storeID, productID uuid.UUID, batchNumber string) (*StockBatch, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *StockBatch) error
}

// MovementTypeRepository resolves movement type rows by name
type MovementTypeRepository interface {
	// EnsureByNames returns the id of every named type, creating missing rows
	EnsureByNames(ctx context.Context, names []string) (map[string]uuid.UUID, error)
}
