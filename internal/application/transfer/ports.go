package transfer

import (
	"context"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/google/uuid"
)

// AccountingPeriodService resolves the period every movement is booked into
type AccountingPeriodService interface {
	// CurrentOpenPeriod returns a reference error when no period is open
	CurrentOpenPeriod(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error)
}

// CurrencyService supplies the tenant currency used when a request names none
type CurrencyService interface {
	DefaultCurrency(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// Product is the part of the catalog the workflow needs
type Product struct {
	ID           uuid.UUID
	Code         string
	Name         string
	Active       bool
	TracksExpiry bool
	TracksSerial bool
}

// ProductCatalog looks up products; returns shared.ErrNotFound for unknown ids
type ProductCatalog interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error)
}

// ReleaseFunc gives a request guard back
type ReleaseFunc func(ctx context.Context) error

// RequestLocker serializes callers acting on the same request before they
// open a database transaction. Row locks inside the transaction stay authoritative.
type RequestLocker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	Requests() transfer.RequestRepository
	ChangeLog() transfer.QuantityChangeLogRepository
	Balances() inventory.InventoryBalanceRepository
	Movements() inventory.MovementLedgerRepository
	Batches() inventory.StockBatchRepository
}

// TransactionScope runs fn in one atomic unit. Any error rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
