package transfer

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferItem is one product line of a transfer request.
// After every successful mutation received <= issued <= approved <= requested,
// except for receipts taken under ReceivePolicy.AllowUnissuedReceipt.
type TransferItem struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	RequestID          uuid.UUID
	ProductID          uuid.UUID
	Requested          decimal.Decimal
	Approved           decimal.Decimal
	Issued             decimal.Decimal
	Received           decimal.Decimal
	Remaining          decimal.Decimal // approved - issued, floor 0
	RemainingReceiving decimal.Decimal // issued - received, floor 0
	UnitCost           decimal.Decimal
	Currency           string
	ExchangeRate       decimal.Decimal
	TotalCost          decimal.Decimal
	EquivalentAmount   decimal.Decimal
	Status             ItemStatus
	BatchNumber        string
	ExpiryDate         *time.Time
	SerialNumber       string
	RejectionReason    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ItemInput describes a line when creating or replacing the items of a draft
type ItemInput struct {
	ProductID    uuid.UUID
	Requested    decimal.Decimal
	UnitCost     decimal.Decimal
	BatchNumber  string
	ExpiryDate   *time.Time
	SerialNumber string
}

func newTransferItem(req *TransferRequest, in ItemInput) (*TransferItem, error) {
	if in.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("product id is required")
	}
	if !in.Requested.IsPositive() {
		return nil, shared.NewValidationError("requested quantity must be positive, got %s", in.Requested)
	}
	if in.UnitCost.IsNegative() {
		return nil, shared.NewValidationError("unit cost cannot be negative")
	}

	now := time.Now()
	item := &TransferItem{
		ID:                 uuid.New(),
		TenantID:           req.TenantID,
		RequestID:          req.ID,
		ProductID:          in.ProductID,
		Requested:          in.Requested,
		Approved:           decimal.Zero,
		Issued:             decimal.Zero,
		Received:           decimal.Zero,
		Remaining:          decimal.Zero,
		RemainingReceiving: decimal.Zero,
		UnitCost:           in.UnitCost,
		Currency:           req.Currency,
		ExchangeRate:       req.ExchangeRate,
		Status:             ItemStatusPending,
		BatchNumber:        in.BatchNumber,
		ExpiryDate:         in.ExpiryDate,
		SerialNumber:       in.SerialNumber,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	item.recalculateCost()
	return item, nil
}

// costBasis is the quantity the line is valued at
func (i *TransferItem) costBasis() decimal.Decimal {
	if i.Status == ItemStatusPending {
		return i.Requested
	}
	return i.Approved
}

func (i *TransferItem) recalculateCost() {
	i.TotalCost = i.costBasis().Mul(i.UnitCost).Round(4)
	rate := i.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	i.EquivalentAmount = i.TotalCost.Mul(rate).Round(4)
}

func (i *TransferItem) touch() {
	i.UpdatedAt = time.Now()
}

// IsHeld reports whether the item has issued stock still owed to the receiver
func (i *TransferItem) IsHeld() bool {
	return i.RemainingReceiving.IsPositive()
}

// Returnable is the issued quantity that never reached the receiver
func (i *TransferItem) Returnable() decimal.Decimal {
	return valueobject.FloorZero(i.Issued.Sub(i.Received))
}

// Snapshot returns the view used by status reconciliation
func (i *TransferItem) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		Status:    i.Status,
		Requested: i.Requested,
		Approved:  i.Approved,
		Issued:    i.Issued,
		Received:  i.Received,
	}
}

// approve sets the approved ceiling; zero rejects the line
func (i *TransferItem) approve(qty decimal.Decimal, actor Actor) (*QuantityChangeLogEntry, error) {
	if i.Status != ItemStatusPending {
		return nil, shared.NewStateError("item %s cannot be approved in %s status", i.ID, i.Status)
	}
	if err := i.validateApproval(qty); err != nil {
		return nil, err
	}

	previous := i.Approved
	i.Approved = qty
	i.Issued = decimal.Zero
	i.Remaining = qty
	i.RemainingReceiving = decimal.Zero
	kind := ChangeKindApproved
	if qty.IsZero() {
		i.Status = ItemStatusRejected
		i.RejectionReason = actor.Note
		kind = ChangeKindRejected
	} else {
		i.Status = ItemStatusApproved
	}
	i.recalculateCost()
	i.touch()

	return newChangeLogEntry(i, kind, qty.Sub(previous), previous, qty, actor), nil
}

func (i *TransferItem) validateApproval(qty decimal.Decimal) error {
	if qty.IsNegative() {
		return shared.NewValidationError("approved quantity cannot be negative")
	}
	if qty.GreaterThan(i.Requested) {
		return shared.NewValidationError("cannot approve %s, only %s requested", qty, i.Requested).
			WithDetail("item_id", i.ID.String()).
			WithDetail("requested", i.Requested.String())
	}
	return nil
}

// reject closes a pending line with a reason
func (i *TransferItem) reject(reason string, actor Actor) *QuantityChangeLogEntry {
	previous := i.Approved
	i.Approved = decimal.Zero
	i.Remaining = decimal.Zero
	i.Status = ItemStatusRejected
	i.RejectionReason = reason
	i.recalculateCost()
	i.touch()
	return newChangeLogEntry(i, ChangeKindRejected, previous.Neg(), previous, decimal.Zero, actor)
}

// ValidateIssue checks an issuing quantity against the remaining ceiling
func (i *TransferItem) ValidateIssue(qty decimal.Decimal) error {
	if !i.Status.CanIssue() {
		return shared.NewStateError("item %s cannot be issued in %s status", i.ID, i.Status)
	}
	if qty.IsNegative() {
		return shared.NewValidationError("issuing quantity cannot be negative")
	}
	if qty.GreaterThan(i.Remaining) {
		return shared.NewValidationError("cannot issue %s, only %s remaining to issue", qty, i.Remaining).
			WithDetail("item_id", i.ID.String()).
			WithDetail("remaining", i.Remaining.String())
	}
	return nil
}

// ApplyIssue records qty as issued. The caller has already taken the stock
// out of the issuing store's balance. Zero means nothing was available this round.
func (i *TransferItem) ApplyIssue(qty decimal.Decimal, actor Actor) (*QuantityChangeLogEntry, error) {
	if err := i.ValidateIssue(qty); err != nil {
		return nil, err
	}

	previous := i.Issued
	i.Issued = i.Issued.Add(qty)
	i.Remaining = valueobject.FloorZero(i.Approved.Sub(i.Issued))
	i.RemainingReceiving = i.RemainingReceiving.Add(qty)
	if qty.IsPositive() && i.Issued.GreaterThanOrEqual(i.Approved) {
		i.Status = ItemStatusFulfilled
	} else {
		i.Status = ItemStatusPartialIssued
	}
	i.touch()

	return newChangeLogEntry(i, ChangeKindIssued, qty, previous, i.Issued, actor), nil
}

// MaxReceivable returns the receive ceiling and whether the zero-issue
// fulfilled exception produced it.
func (i *TransferItem) MaxReceivable(policy ReceivePolicy) (decimal.Decimal, bool) {
	if policy.AllowUnissuedReceipt && i.Status == ItemStatusFulfilled && i.Issued.IsZero() {
		return valueobject.FloorZero(i.Requested.Sub(i.Received)), true
	}
	return valueobject.FloorZero(i.Issued.Sub(i.Received)), false
}

// ValidateReceive checks a received quantity against the receive ceiling
func (i *TransferItem) ValidateReceive(qty decimal.Decimal, policy ReceivePolicy) error {
	if !i.Status.CanReceive() {
		return shared.NewStateError("item %s cannot be received in %s status", i.ID, i.Status)
	}
	if !qty.IsPositive() {
		return shared.NewValidationError("received quantity must be positive")
	}
	max, _ := i.MaxReceivable(policy)
	if qty.GreaterThan(max) {
		return shared.NewValidationError("cannot receive %s, only %s receivable", qty, max).
			WithDetail("item_id", i.ID.String()).
			WithDetail("receivable", max.String())
	}
	return nil
}

// ApplyReceive records qty as received. The caller has already added the
// stock to the receiving store's balance.
func (i *TransferItem) ApplyReceive(qty decimal.Decimal, policy ReceivePolicy, actor Actor) (*QuantityChangeLogEntry, error) {
	if err := i.ValidateReceive(qty, policy); err != nil {
		return nil, err
	}

	previous := i.Received
	i.Received = i.Received.Add(qty)
	i.RemainingReceiving = valueobject.FloorZero(i.Issued.Sub(i.Received))
	if i.Received.GreaterThanOrEqual(i.Issued) {
		i.Status = ItemStatusFullyReceived
	} else {
		i.Status = ItemStatusPartiallyReceived
	}
	i.touch()

	return newChangeLogEntry(i, ChangeKindReceived, qty, previous, i.Received, actor), nil
}

// cancel closes the line without moving stock
func (i *TransferItem) cancel(actor Actor) *QuantityChangeLogEntry {
	previous := i.Remaining
	i.Remaining = decimal.Zero
	i.Status = ItemStatusCancelled
	i.touch()
	return newChangeLogEntry(i, ChangeKindCancelled, previous.Neg(), previous, decimal.Zero, actor)
}

// applyReversal settles the line after Returnable() has gone back to the issuing store
func (i *TransferItem) applyReversal(policy ReversalPolicy, actor Actor) *QuantityChangeLogEntry {
	returnable := i.Returnable()
	previous := i.RemainingReceiving

	switch policy {
	case ReversalPolicyReopen:
		i.Received = decimal.Zero
		i.RemainingReceiving = i.Issued
		if i.Issued.GreaterThanOrEqual(i.Approved) {
			i.Status = ItemStatusFulfilled
		} else {
			i.Status = ItemStatusPartialIssued
		}
	default:
		i.RemainingReceiving = decimal.Zero
		i.Remaining = decimal.Zero
		i.Status = ItemStatusCancelled
	}
	i.touch()

	return newChangeLogEntry(i, ChangeKindReturned, returnable, previous, i.RemainingReceiving, actor)
}

// CheckInvariant verifies received <= issued <= approved <= requested.
// allowUnissued accepts received > issued on lines that were received under
// the zero-issue exception.
func (i *TransferItem) CheckInvariant(allowUnissued bool) error {
	if i.Received.IsNegative() || i.Issued.IsNegative() || i.Approved.IsNegative() {
		return shared.NewValidationError("item %s has a negative counter", i.ID)
	}
	if i.Issued.GreaterThan(i.Approved) || i.Approved.GreaterThan(i.Requested) {
		return shared.NewValidationError("item %s counters out of order: requested %s, approved %s, issued %s",
			i.ID, i.Requested, i.Approved, i.Issued)
	}
	if i.Received.GreaterThan(i.Issued) && !(allowUnissued && i.Issued.IsZero() && i.Received.LessThanOrEqual(i.Requested)) {
		return shared.NewValidationError("item %s received %s exceeds issued %s", i.ID, i.Received, i.Issued)
	}
	return nil
}
