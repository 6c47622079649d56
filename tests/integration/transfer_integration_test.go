package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	apptransfer "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/lock"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type transferEnv struct {
	db         *TestDB
	svc        *apptransfer.TransferService
	tenantID   uuid.UUID
	userID     uuid.UUID
	issuing    uuid.UUID
	requesting uuid.UUID
}

func newTransferEnv(t *testing.T) *transferEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	tdb := NewTestDB(t)
	env := &transferEnv{
		db:         tdb,
		tenantID:   uuid.New(),
		userID:     uuid.New(),
		issuing:    uuid.New(),
		requesting: uuid.New(),
	}
	tdb.CreateOpenPeriod(env.tenantID)
	tdb.SetTenantCurrency(env.tenantID, "EUR")

	registry, err := persistence.LoadMovementTypeRegistry(context.Background(), tdb.DB)
	require.NoError(t, err)

	env.svc = apptransfer.NewTransferService(
		persistence.NewGormTransactionScope(tdb.DB),
		persistence.NewGormTransferRequestRepository(tdb.DB),
		persistence.NewGormQuantityChangeLogRepository(tdb.DB),
		persistence.NewGormMovementLedgerRepository(tdb.DB),
		persistence.NewGormAccountingPeriodRepository(tdb.DB),
		persistence.NewGormTenantSettingsRepository(tdb.DB),
		persistence.NewGormProductCatalog(tdb.DB),
		registry,
		zaptest.NewLogger(t),
		apptransfer.Options{DefaultCurrency: "USD"},
	)
	env.svc.SetRequestLocker(lock.NewMemoryLocker(5 * time.Second))
	return env
}

func (e *transferEnv) seedStock(t *testing.T, productID uuid.UUID, qty int64) {
	t.Helper()
	err := e.db.DB.Exec(`
		INSERT INTO inventory_balances (id, tenant_id, store_id, product_id, quantity, unit_cost, version)
		VALUES (?, ?, ?, ?, ?, 2, 1)
	`, uuid.New(), e.tenantID, e.issuing, productID, qty).Error
	require.NoError(t, err)
}

func (e *transferEnv) balance(t *testing.T, storeID, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	var qty decimal.Decimal
	err := e.db.DB.Raw(`
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_balances
		WHERE tenant_id = ? AND store_id = ? AND product_id = ?
	`, e.tenantID, storeID, productID).Scan(&qty).Error
	require.NoError(t, err)
	return qty
}

func (e *transferEnv) approved(t *testing.T, ctx context.Context, productID uuid.UUID, qty int64) (uuid.UUID, uuid.UUID) {
	t.Helper()
	req, err := e.svc.CreateRequest(ctx, e.tenantID, e.userID, apptransfer.CreateRequestInput{
		RequestingStoreID: e.requesting,
		IssuingStoreID:    e.issuing,
		Items: []apptransfer.ItemInput{{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(qty),
			UnitCost:  decimal.NewFromInt(2),
		}},
	})
	require.NoError(t, err)
	_, err = e.svc.Submit(ctx, e.tenantID, e.userID, req.ID)
	require.NoError(t, err)
	_, err = e.svc.ApproveAll(ctx, e.tenantID, e.userID, req.ID, "")
	require.NoError(t, err)
	return req.ID, req.Items[0].ID
}

func line(itemID uuid.UUID, qty int64) []apptransfer.LineQuantity {
	return []apptransfer.LineQuantity{{ItemID: itemID, Quantity: decimal.NewFromInt(qty)}}
}

func TestTransferWorkflow_Postgres(t *testing.T) {
	env := newTransferEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	env.db.CreateTestProduct(env.tenantID, productID)
	env.seedStock(t, productID, 100)

	requestID, itemID := env.approved(t, ctx, productID, 40)

	t.Run("reference number and tenant currency", func(t *testing.T) {
		req, err := env.svc.GetRequest(ctx, env.tenantID, requestID)
		require.NoError(t, err)
		assert.NotEmpty(t, req.ReferenceNumber)
		assert.Equal(t, "EUR", req.Currency)
		assert.Equal(t, string(transfer.RequestStatusApproved), req.Status)
	})

	t.Run("partial issue", func(t *testing.T) {
		resp, err := env.svc.Issue(ctx, env.tenantID, env.userID, requestID, apptransfer.IssueInput{Lines: line(itemID, 25)})
		require.NoError(t, err)
		assert.Equal(t, string(transfer.RequestStatusPartialIssued), resp.Status)
		assert.True(t, decimal.NewFromInt(75).Equal(env.balance(t, env.issuing, productID)))
	})

	t.Run("oversized issue leaves state untouched", func(t *testing.T) {
		_, err := env.svc.Issue(ctx, env.tenantID, env.userID, requestID, apptransfer.IssueInput{Lines: line(itemID, 20)})
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation), "got %v", err)
		assert.True(t, decimal.NewFromInt(75).Equal(env.balance(t, env.issuing, productID)))
	})

	t.Run("receive issued quantity", func(t *testing.T) {
		resp, err := env.svc.Receive(ctx, env.tenantID, env.userID, requestID, apptransfer.ReceiveInput{Lines: line(itemID, 25)})
		require.NoError(t, err)
		assert.Equal(t, string(transfer.RequestStatusPartiallyReceived), resp.Status)
		assert.True(t, decimal.NewFromInt(25).Equal(env.balance(t, env.requesting, productID)))
	})

	t.Run("ledger and log", func(t *testing.T) {
		movements, err := env.svc.ListMovements(ctx, env.tenantID, requestID)
		require.NoError(t, err)
		require.Len(t, movements, 2)
		types := []string{movements[0].MovementType, movements[1].MovementType}
		assert.ElementsMatch(t, []string{inventory.MovementTypeStoreIssue.Name(), inventory.MovementTypeStoreReceipt.Name()}, types)

		entries, err := env.svc.ListItemLog(ctx, env.tenantID, requestID, &itemID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(entries), 3)
	})

	t.Run("other tenants see nothing", func(t *testing.T) {
		_, err := env.svc.GetRequest(ctx, uuid.New(), requestID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTransferWorkflow_ConcurrentIssuesNeverOversell(t *testing.T) {
	env := newTransferEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	env.db.CreateTestProduct(env.tenantID, productID)
	env.seedStock(t, productID, 30)

	const requests = 6
	ids := make([][2]uuid.UUID, requests)
	for i := range ids {
		requestID, itemID := env.approved(t, ctx, productID, 10)
		ids[i] = [2]uuid.UUID{requestID, itemID}
	}

	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Issue(ctx, env.tenantID, env.userID, ids[i][0], apptransfer.IssueInput{Lines: line(ids[i][1], 10)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, shared.IsKind(err, shared.KindInsufficientStock), "got %v", err)
	}
	assert.Equal(t, 3, succeeded)
	assert.True(t, env.balance(t, env.issuing, productID).IsZero())
}
