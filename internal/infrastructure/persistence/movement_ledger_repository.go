package persistence

import (
	"context"
	"time"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMovementLedgerRepository implements inventory.MovementLedgerRepository using GORM
type GormMovementLedgerRepository struct {
	db *gorm.DB
}

// NewGormMovementLedgerRepository creates a new GormMovementLedgerRepository
func NewGormMovementLedgerRepository(db *gorm.DB) *GormMovementLedgerRepository {
	return &GormMovementLedgerRepository{db: db}
}

// Append inserts entries in one statement
func (r *GormMovementLedgerRepository) Append(ctx context.Context, entries ...*inventory.MovementLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.MovementLedgerModel, len(entries))
	for i, e := range entries {
		rows[i] = models.MovementLedgerModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error, "inventory movement")
}

func (r *GormMovementLedgerRepository) bySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.MovementLedgerModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID)
}

// ListBySource lists movements of a source document, oldest first
func (r *GormMovementLedgerRepository) ListBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]inventory.MovementLedgerEntry, error) {
	var rows []models.MovementLedgerModel
	if err := r.bySource(ctx, tenantID, sourceType, sourceID).
		Order("moved_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]inventory.MovementLedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// CountBySource counts movements of a source document
func (r *GormMovementLedgerRepository) CountBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) (int64, error) {
	var count int64
	err := r.bySource(ctx, tenantID, sourceType, sourceID).Count(&count).Error
	return count, err
}

// GormMovementTypeRepository implements inventory.MovementTypeRepository using GORM
type GormMovementTypeRepository struct {
	db *gorm.DB
}

// NewGormMovementTypeRepository creates a new GormMovementTypeRepository
func NewGormMovementTypeRepository(db *gorm.DB) *GormMovementTypeRepository {
	return &GormMovementTypeRepository{db: db}
}

// EnsureByNames creates missing movement type rows and returns every id by name
func (r *GormMovementTypeRepository) EnsureByNames(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	db := r.db.WithContext(ctx)
	now := time.Now()
	for _, name := range names {
		mt, _ := inventory.ParseMovementType(name)
		row := models.MovementTypeModel{ID: uuid.New(), Name: name, Inbound: mt.IsInbound(), CreatedAt: now}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return nil, translateError(err, "movement type")
		}
	}

	var rows []models.MovementTypeModel
	if err := db.Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		ids[row.Name] = row.ID
	}
	return ids, nil
}

// LoadMovementTypeRegistry resolves every movement type the workflow needs,
// creating the rows on first start.
func LoadMovementTypeRegistry(ctx context.Context, db *gorm.DB) (*inventory.MovementTypeRegistry, error) {
	types := inventory.AllMovementTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	ids, err := NewGormMovementTypeRepository(db).EnsureByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	return inventory.NewMovementTypeRegistry(ids)
}

var (
	_ inventory.MovementLedgerRepository = (*GormMovementLedgerRepository)(nil)
	_ inventory.MovementTypeRepository   = (*GormMovementTypeRepository)(nil)
)
