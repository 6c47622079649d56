package persistence

import (
	"context"
	"errors"
	"time"

	apptransfer "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountingPeriodRepository resolves open accounting periods
type GormAccountingPeriodRepository struct {
	db *gorm.DB
}

// NewGormAccountingPeriodRepository creates a new GormAccountingPeriodRepository
func NewGormAccountingPeriodRepository(db *gorm.DB) *GormAccountingPeriodRepository {
	return &GormAccountingPeriodRepository{db: db}
}

// CurrentOpenPeriod returns the open period covering today
func (r *GormAccountingPeriodRepository) CurrentOpenPeriod(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var period models.AccountingPeriodModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("is_open = ? AND start_date <= ? AND end_date >= ?", true, today, today).
		Order("start_date DESC").
		First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, shared.NewReferenceError("no open accounting period for %s", today.Format("2006-01-02"))
	}
	if err != nil {
		return uuid.Nil, err
	}
	return period.ID, nil
}

// GormTenantSettingsRepository reads per-tenant defaults
type GormTenantSettingsRepository struct {
	db *gorm.DB
}

// NewGormTenantSettingsRepository creates a new GormTenantSettingsRepository
func NewGormTenantSettingsRepository(db *gorm.DB) *GormTenantSettingsRepository {
	return &GormTenantSettingsRepository{db: db}
}

// DefaultCurrency returns the tenant currency or shared.ErrNotFound
func (r *GormTenantSettingsRepository) DefaultCurrency(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var settings models.TenantSettingsModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&settings).Error; err != nil {
		return "", translateError(err, "tenant settings")
	}
	return settings.DefaultCurrency, nil
}

// GormProductCatalog reads products for line validation
type GormProductCatalog struct {
	db *gorm.DB
}

// NewGormProductCatalog creates a new GormProductCatalog
func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// GetProduct returns shared.ErrNotFound for unknown or foreign products
func (c *GormProductCatalog) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*apptransfer.Product, error) {
	var model models.ProductModel
	if err := c.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", productID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "product")
	}
	return &apptransfer.Product{
		ID:           model.ID,
		Code:         model.Code,
		Name:         model.Name,
		Active:       model.Status == models.ProductStatusActive,
		TracksExpiry: model.TracksExpiry,
		TracksSerial: model.TracksSerial,
	}, nil
}

var (
	_ apptransfer.AccountingPeriodService = (*GormAccountingPeriodRepository)(nil)
	_ apptransfer.CurrencyService         = (*GormTenantSettingsRepository)(nil)
	_ apptransfer.ProductCatalog          = (*GormProductCatalog)(nil)
)
