package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/config"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func seedOpenPeriod(t *testing.T, db *gorm.DB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	period := models.AccountingPeriodModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:  tenantID,
		Name:      "current",
		StartDate: now.AddDate(-1, 0, 0),
		EndDate:   now.AddDate(1, 0, 0),
		IsOpen:    true,
	}
	require.NoError(t, db.Create(&period).Error)
	return period.ID
}

func newDraft(t *testing.T, tenantID uuid.UUID, ref string, quantities ...int64) *transfer.TransferRequest {
	t.Helper()
	req, err := transfer.NewTransferRequest(tenantID, uuid.New(), ref, transfer.Header{
		RequestingStoreID: uuid.New(),
		IssuingStoreID:    uuid.New(),
		Currency:          "USD",
	})
	require.NoError(t, err)

	inputs := make([]transfer.ItemInput, 0, len(quantities))
	for _, q := range quantities {
		inputs = append(inputs, transfer.ItemInput{
			ProductID: uuid.New(),
			Requested: decimal.NewFromInt(q),
			UnitCost:  decimal.NewFromInt(5),
		})
	}
	if len(inputs) > 0 {
		_, err = req.ReplaceItems(inputs, transfer.Actor{UserID: uuid.New()})
		require.NoError(t, err)
	}
	return req
}

func saveDraft(t *testing.T, db *gorm.DB, req *transfer.TransferRequest) {
	t.Helper()
	require.NoError(t, NewGormTransferRequestRepository(db).Save(context.Background(), req))
}
