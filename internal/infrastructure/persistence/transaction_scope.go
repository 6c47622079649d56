package persistence

import (
	"context"

	apptransfer "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares the one transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptransfer.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Requests() transfer.RequestRepository {
	return NewGormTransferRequestRepository(r.tx)
}

func (r *gormTransactionalRepositories) ChangeLog() transfer.QuantityChangeLogRepository {
	return NewGormQuantityChangeLogRepository(r.tx)
}

func (r *gormTransactionalRepositories) Balances() inventory.InventoryBalanceRepository {
	return NewGormInventoryBalanceRepository(r.tx)
}

func (r *gormTransactionalRepositories) Movements() inventory.MovementLedgerRepository {
	return NewGormMovementLedgerRepository(r.tx)
}

func (r *gormTransactionalRepositories) Batches() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

var (
	_ apptransfer.TransactionScope          = (*GormTransactionScope)(nil)
	_ apptransfer.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
