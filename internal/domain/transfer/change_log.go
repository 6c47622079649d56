package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeKind names the counter a change log entry is about
type ChangeKind string

const (
	ChangeKindRequested ChangeKind = "requested"
	ChangeKindApproved  ChangeKind = "approved"
	ChangeKindIssued    ChangeKind = "issued"
	ChangeKindReceived  ChangeKind = "received"
	ChangeKindRejected  ChangeKind = "rejected"
	// ChangeKindCancelled tracks the remaining counter going to zero
	ChangeKindCancelled ChangeKind = "cancelled"
	// ChangeKindReturned tracks remaining_receiving during a reversal
	ChangeKindReturned ChangeKind = "returned"
)

// IsValid checks if the kind is known
func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeKindRequested, ChangeKindApproved, ChangeKindIssued, ChangeKindReceived,
		ChangeKindRejected, ChangeKindCancelled, ChangeKindReturned:
		return true
	}
	return false
}

// QuantityChangeLogEntry is an immutable audit row for one counter mutation on an item
type QuantityChangeLogEntry struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	RequestID      uuid.UUID
	ItemID         uuid.UUID
	Kind           ChangeKind
	Quantity       decimal.Decimal // delta applied by the operation
	PreviousValue  decimal.Decimal
	ResultingValue decimal.Decimal
	ActorID        uuid.UUID
	Note           string
	CreatedAt      time.Time
}

func newChangeLogEntry(item *TransferItem, kind ChangeKind, delta, previous, resulting decimal.Decimal, actor Actor) *QuantityChangeLogEntry {
	return &QuantityChangeLogEntry{
		ID:             uuid.New(),
		TenantID:       item.TenantID,
		RequestID:      item.RequestID,
		ItemID:         item.ID,
		Kind:           kind,
		Quantity:       delta,
		PreviousValue:  previous,
		ResultingValue: resulting,
		ActorID:        actor.UserID,
		Note:           actor.Note,
		CreatedAt:      time.Now(),
	}
}

// Actor identifies who performed an operation, with an optional note
type Actor struct {
	UserID uuid.UUID
	Note   string
}
