package persistence

import (
	"context"
	"errors"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryBalanceRepository implements inventory.InventoryBalanceRepository using GORM
type GormInventoryBalanceRepository struct {
	db *gorm.DB
}

// NewGormInventoryBalanceRepository creates a new GormInventoryBalanceRepository
func NewGormInventoryBalanceRepository(db *gorm.DB) *GormInventoryBalanceRepository {
	return &GormInventoryBalanceRepository{db: db}
}

func (r *GormInventoryBalanceRepository) byKey(ctx context.Context, key inventory.BalanceKey) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(key.TenantID)).
		Where("store_id = ? AND product_id = ?", key.StoreID, key.ProductID)
}

// Find loads a balance without locking it
func (r *GormInventoryBalanceRepository) Find(ctx context.Context, key inventory.BalanceKey) (*inventory.InventoryBalance, error) {
	var model models.InventoryBalanceModel
	if err := r.byKey(ctx, key).First(&model).Error; err != nil {
		return nil, translateError(err, "inventory balance")
	}
	return model.ToDomain(), nil
}

// FindForUpdate loads a balance with SELECT ... FOR UPDATE
func (r *GormInventoryBalanceRepository) FindForUpdate(ctx context.Context, key inventory.BalanceKey) (*inventory.InventoryBalance, error) {
	var model models.InventoryBalanceModel
	if err := r.byKey(ctx, key).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model).Error; err != nil {
		return nil, translateError(err, "inventory balance")
	}
	return model.ToDomain(), nil
}

// GetOrCreateForUpdate inserts a zero row if none exists, ignoring a
// concurrent insert of the same key, then locks it.
func (r *GormInventoryBalanceRepository) GetOrCreateForUpdate(ctx context.Context, key inventory.BalanceKey) (*inventory.InventoryBalance, error) {
	balance, err := r.FindForUpdate(ctx, key)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	fresh, err := inventory.NewInventoryBalance(key.TenantID, key.StoreID, key.ProductID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.InventoryBalanceModelFromDomain(fresh)).Error; err != nil {
		return nil, translateError(err, "inventory balance")
	}
	return r.FindForUpdate(ctx, key)
}

// Save writes quantity and cost of a locked balance
func (r *GormInventoryBalanceRepository) Save(ctx context.Context, balance *inventory.InventoryBalance) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryBalanceModel{}).
		Scopes(tenant.TenantScope(balance.TenantID)).
		Where("id = ?", balance.ID).
		Updates(map[string]any{
			"quantity":   balance.Quantity,
			"unit_cost":  balance.UnitCost,
			"version":    balance.Version,
			"updated_at": balance.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "inventory balance")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByStore lists balances of a store ordered by product
func (r *GormInventoryBalanceRepository) ListByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]inventory.InventoryBalance, error) {
	var rows []models.InventoryBalanceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("store_id = ?", storeID).
		Order("product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	balances := make([]inventory.InventoryBalance, len(rows))
	for i := range rows {
		balances[i] = *rows[i].ToDomain()
	}
	return balances, nil
}

var _ inventory.InventoryBalanceRepository = (*GormInventoryBalanceRepository)(nil)
