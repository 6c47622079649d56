package persistence

import (
	"context"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockBatchRepository implements inventory.StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

func (r *GormStockBatchRepository) byNumber(ctx context.Context, tenantID, storeID, productID uuid.UUID, batchNumber string) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("store_id = ? AND product_id = ? AND batch_number = ?", storeID, productID, batchNumber)
}

// Find loads a batch without locking
func (r *GormStockBatchRepository) Find(ctx context.Context, tenantID, storeID, productID uuid.UUID, batchNumber string) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.byNumber(ctx, tenantID, storeID, productID, batchNumber).First(&model).Error; err != nil {
		return nil, translateError(err, "stock batch")
	}
	return model.ToDomain(), nil
}

// FindForUpdate loads a batch with SELECT ... FOR UPDATE
func (r *GormStockBatchRepository) FindForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID, batchNumber string) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.byNumber(ctx, tenantID, storeID, productID, batchNumber).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model).Error; err != nil {
		return nil, translateError(err, "stock batch")
	}
	return model.ToDomain(), nil
}

// Save creates or updates a batch
func (r *GormStockBatchRepository) Save(ctx context.Context, batch *inventory.StockBatch) error {
	return translateError(r.db.WithContext(ctx).Save(models.StockBatchModelFromDomain(batch)).Error, "stock batch")
}

var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
