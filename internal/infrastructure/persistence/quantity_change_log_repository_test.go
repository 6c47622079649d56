package persistence

import (
	"context"
	"testing"

	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormQuantityChangeLogRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	req := newDraft(t, tenantID, "TR-20260101-0001", 5, 7)
	saveDraft(t, db, req)
	require.NoError(t, req.Submit(transfer.Actor{UserID: uuid.New()}))
	entries, err := req.Approve(map[uuid.UUID]decimal.Decimal{
		req.Items[0].ID: decimal.NewFromInt(3),
	}, transfer.Actor{UserID: uuid.New(), Note: "partial"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	repo := NewGormQuantityChangeLogRepository(db)
	require.NoError(t, repo.Append(ctx, entries...))

	all, err := repo.ListByRequest(ctx, tenantID, req.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	first, err := repo.ListByItem(ctx, tenantID, req.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, transfer.ChangeKindApproved, first[0].Kind)
	assert.True(t, first[0].ResultingValue.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "partial", first[0].Note)

	count, err := repo.CountByRequest(ctx, tenantID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	foreign, err := repo.ListByRequest(ctx, uuid.New(), req.ID)
	require.NoError(t, err)
	assert.Empty(t, foreign)
}
