package persistence

import (
	"context"

	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuantityChangeLogRepository implements transfer.QuantityChangeLogRepository using GORM
type GormQuantityChangeLogRepository struct {
	db *gorm.DB
}

// NewGormQuantityChangeLogRepository creates a new GormQuantityChangeLogRepository
func NewGormQuantityChangeLogRepository(db *gorm.DB) *GormQuantityChangeLogRepository {
	return &GormQuantityChangeLogRepository{db: db}
}

// Append inserts entries in one statement
func (r *GormQuantityChangeLogRepository) Append(ctx context.Context, entries ...*transfer.QuantityChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.QuantityChangeLogModel, len(entries))
	for i, e := range entries {
		rows[i] = models.QuantityChangeLogModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error, "quantity change log")
}

// ListByRequest lists entries of a request, oldest first
func (r *GormQuantityChangeLogRepository) ListByRequest(ctx context.Context, tenantID, requestID uuid.UUID) ([]transfer.QuantityChangeLogEntry, error) {
	return r.list(r.db.WithContext(ctx).Scopes(tenant.TenantScope(tenantID)).Where("request_id = ?", requestID))
}

// ListByItem lists entries of one item, oldest first
func (r *GormQuantityChangeLogRepository) ListByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]transfer.QuantityChangeLogEntry, error) {
	return r.list(r.db.WithContext(ctx).Scopes(tenant.TenantScope(tenantID)).Where("item_id = ?", itemID))
}

// CountByRequest counts entries of a request
func (r *GormQuantityChangeLogRepository) CountByRequest(ctx context.Context, tenantID, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuantityChangeLogModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

func (r *GormQuantityChangeLogRepository) list(query *gorm.DB) ([]transfer.QuantityChangeLogEntry, error) {
	var rows []models.QuantityChangeLogModel
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]transfer.QuantityChangeLogEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

var _ transfer.QuantityChangeLogRepository = (*GormQuantityChangeLogRepository)(nil)
