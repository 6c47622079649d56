package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransferRequestSortFields contains allowed sort fields for transfer requests
var TransferRequestSortFields = SortColumns{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"reference_number": true,
	"status":           true,
	"priority":         true,
	"total_value":      true,
	"approved_at":      true,
}

// GormTransferRequestRepository implements transfer.RequestRepository using GORM
type GormTransferRequestRepository struct {
	db *gorm.DB
}

// NewGormTransferRequestRepository creates a new GormTransferRequestRepository
func NewGormTransferRequestRepository(db *gorm.DB) *GormTransferRequestRepository {
	return &GormTransferRequestRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("transfer_items.created_at ASC, transfer_items.id ASC")
}

// FindByID loads a request with its items
func (r *GormTransferRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*transfer.TransferRequest, error) {
	var model models.TransferRequestModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Items", preloadItems).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "transfer request")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the header row with SELECT ... FOR UPDATE and loads the items.
// Must run inside a transaction.
func (r *GormTransferRequestRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*transfer.TransferRequest, error) {
	var model models.TransferRequestModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "transfer request")
	}
	if err := preloadItems(r.db.WithContext(ctx)).
		Where("request_id = ?", model.ID).
		Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReferenceNumber loads a request by reference number
func (r *GormTransferRequestRepository) FindByReferenceNumber(ctx context.Context, tenantID uuid.UUID, referenceNumber string) (*transfer.TransferRequest, error) {
	var model models.TransferRequestModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Items", preloadItems).
		Where("reference_number = ?", referenceNumber).
		First(&model).Error; err != nil {
		return nil, translateError(err, "transfer request")
	}
	return model.ToDomain(), nil
}

// FindAll lists requests matching the filter and returns the total count
func (r *GormTransferRequestRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter transfer.RequestFilter) ([]transfer.TransferRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransferRequestModel{}).Scopes(tenant.TenantScope(tenantID))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StoreID != uuid.Nil {
		query = query.Scopes(tenant.StoreScope(filter.StoreID, "requesting_store_id", "issuing_store_id"))
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.Search != "" {
		query = query.Where("reference_number LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Clauses(TransferRequestSortFields.OrderBy(filter.OrderBy, filter.OrderDir, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.TransferRequestModel
	if err := query.Preload("Items", preloadItems).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	requests := make([]transfer.TransferRequest, len(rows))
	for i := range rows {
		requests[i] = *rows[i].ToDomain()
	}
	return requests, total, nil
}

// Save inserts a new request or updates a stored one with an optimistic
// version check, then upserts the items and removes items no longer on it.
func (r *GormTransferRequestRepository) Save(ctx context.Context, req *transfer.TransferRequest) error {
	db := r.db.WithContext(ctx)

	if err := r.saveHeader(db, req); err != nil {
		return err
	}

	keep := make([]uuid.UUID, 0, len(req.Items))
	for i := range req.Items {
		keep = append(keep, req.Items[i].ID)
	}
	stale := db.Where("request_id = ?", req.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.TransferItemModel{}).Error; err != nil {
		return translateError(err, "transfer item")
	}

	for i := range req.Items {
		if err := db.Save(models.TransferItemModelFromDomain(&req.Items[i])).Error; err != nil {
			return translateError(err, "transfer item")
		}
	}
	req.MarkStored()
	return nil
}

func (r *GormTransferRequestRepository) saveHeader(db *gorm.DB, req *transfer.TransferRequest) error {
	header := models.TransferRequestModelFromDomain(req)
	if req.StoredVersion() == 0 {
		if err := db.Omit("Items").Create(header).Error; err != nil {
			return translateError(err, "transfer request")
		}
		return nil
	}

	result := db.Model(header).
		Scopes(tenant.TenantScope(req.TenantID)).
		Where("version = ?", req.StoredVersion()).
		Select("*").
		Omit("Items").
		Updates(header)
	if result.Error != nil {
		return translateError(result.Error, "transfer request")
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("request_id", req.ID.String())
	}
	return nil
}

// Delete removes a request and its items
func (r *GormTransferRequestRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Scopes(tenant.TenantScope(tenantID)).
		Where("request_id = ?", id).
		Delete(&models.TransferItemModel{}).Error; err != nil {
		return translateError(err, "transfer item")
	}
	result := db.Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&models.TransferRequestModel{})
	if result.Error != nil {
		return translateError(result.Error, "transfer request")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextReferenceNumber returns the day prefix plus one more than the highest
// sequence already used. The unique index on (tenant_id, reference_number)
// rejects a concurrent duplicate.
func (r *GormTransferRequestRepository) NextReferenceNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error) {
	prefix := transfer.ReferencePrefix(day)

	var refs []string
	if err := r.db.WithContext(ctx).Model(&models.TransferRequestModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("reference_number LIKE ?", prefix+"%").
		Order("LENGTH(reference_number) DESC, reference_number DESC").
		Limit(1).
		Pluck("reference_number", &refs).Error; err != nil {
		return "", err
	}

	seq := 0
	if len(refs) > 0 {
		n, err := strconv.Atoi(strings.TrimPrefix(refs[0], prefix))
		if err != nil {
			return "", fmt.Errorf("malformed reference number %q: %w", refs[0], err)
		}
		seq = n
	}
	return transfer.FormatReferenceNumber(day, seq+1), nil
}

var _ transfer.RequestRepository = (*GormTransferRequestRepository)(nil)
