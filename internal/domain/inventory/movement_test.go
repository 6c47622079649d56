package inventory

import (
	"testing"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *MovementTypeRegistry {
	t.Helper()
	reg, err := NewMovementTypeRegistry(map[string]uuid.UUID{
		MovementNameStoreIssue:   uuid.New(),
		MovementNameStoreReceipt: uuid.New(),
		MovementNameStoreReturn:  uuid.New(),
	})
	require.NoError(t, err)
	return reg
}

func TestMovementTypeRegistry(t *testing.T) {
	t.Run("resolves every workflow type", func(t *testing.T) {
		issueID := uuid.New()
		reg, err := NewMovementTypeRegistry(map[string]uuid.UUID{
			MovementNameStoreIssue:   issueID,
			MovementNameStoreReceipt: uuid.New(),
			MovementNameStoreReturn:  uuid.New(),
			"Opening Balance":        uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, issueID, reg.ID(MovementTypeStoreIssue))
	})

	t.Run("fails when a type is missing", func(t *testing.T) {
		_, err := NewMovementTypeRegistry(map[string]uuid.UUID{
			MovementNameStoreIssue: uuid.New(),
		})
		assert.True(t, shared.IsKind(err, shared.KindReference))
	})
}

func TestParseMovementType(t *testing.T) {
	mt, err := ParseMovementType("Store Receipt")
	require.NoError(t, err)
	assert.Equal(t, MovementTypeStoreReceipt, mt)
	assert.True(t, mt.IsInbound())

	_, err = ParseMovementType("Store Teleport")
	assert.Error(t, err)
}

func TestNewMovementLedgerEntry(t *testing.T) {
	reg := newTestRegistry(t)
	balance := newTestBalance(t, 20)
	periodID := uuid.New()

	t.Run("issue records quantity out", func(t *testing.T) {
		entry, err := NewMovementLedgerEntry(MovementParams{
			TenantID:      balance.TenantID,
			Type:          MovementTypeStoreIssue,
			Registry:      reg,
			Balance:       balance,
			Quantity:      decimal.NewFromInt(5),
			BalanceBefore: decimal.NewFromInt(25),
			UnitCost:      decimal.NewFromInt(2),
			SourceID:      uuid.New(),
			PeriodID:      periodID,
		})
		require.NoError(t, err)
		assert.True(t, entry.QuantityOut.Equal(decimal.NewFromInt(5)))
		assert.True(t, entry.QuantityIn.IsZero())
		assert.True(t, entry.SignedQuantity().Equal(decimal.NewFromInt(-5)))
		assert.True(t, entry.TotalCost().Equal(decimal.NewFromInt(10)))
		assert.Equal(t, reg.ID(MovementTypeStoreIssue), entry.MovementTypeID)
		assert.Equal(t, SourceTypeTransferRequest, entry.SourceType)
		assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(20)))
	})

	t.Run("return records quantity in", func(t *testing.T) {
		entry, err := NewMovementLedgerEntry(MovementParams{
			Type:     MovementTypeStoreReturn,
			Registry: reg,
			Balance:  balance,
			Quantity: decimal.NewFromInt(6),
			PeriodID: periodID,
		})
		require.NoError(t, err)
		assert.True(t, entry.QuantityIn.Equal(decimal.NewFromInt(6)))
	})

	t.Run("requires an accounting period", func(t *testing.T) {
		_, err := NewMovementLedgerEntry(MovementParams{
			Type:     MovementTypeStoreIssue,
			Registry: reg,
			Balance:  balance,
			Quantity: decimal.NewFromInt(1),
		})
		assert.True(t, shared.IsKind(err, shared.KindReference))
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewMovementLedgerEntry(MovementParams{
			Type:     MovementTypeStoreIssue,
			Registry: reg,
			Balance:  balance,
			Quantity: decimal.Zero,
			PeriodID: periodID,
		})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})
}
