package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorKinds(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		err := NewValidationError("cannot approve %s, only %s requested", "40", "30")
		assert.Equal(t, CodeValidation, err.Code)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, "cannot approve 40, only 30 requested", err.Error())
	})

	t.Run("insufficient stock carries available balance", func(t *testing.T) {
		err := NewInsufficientStockError(decimal.NewFromInt(10), decimal.NewFromInt(15))
		assert.Equal(t, "cannot issue 15, only 10 available", err.Message)
		assert.Equal(t, "10", err.Details["available"])
		assert.True(t, IsKind(err, KindInsufficientStock))
	})

	t.Run("persistence keeps the cause", func(t *testing.T) {
		cause := errors.New("duplicate key value violates unique constraint")
		err := NewPersistenceError(cause, "reference number already used")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, KindPersistence, err.Kind)
	})
}

func TestDomainErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("load request: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	stateErr := NewStateError("cannot issue a draft request")
	assert.True(t, errors.Is(stateErr, ErrInvalidState))
	assert.False(t, errors.Is(stateErr, ErrNotFound))
}

func TestWithDetail(t *testing.T) {
	base := NewValidationError("bad quantity")
	withDetail := base.WithDetail("item_id", "abc")
	require.NotNil(t, withDetail.Details)
	assert.Equal(t, "abc", withDetail.Details["item_id"])
	assert.Nil(t, base.Details)
}

func TestKindOfNonDomainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
