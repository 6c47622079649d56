package transfer

import (
	"fmt"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest moves stock between two stores of one tenant.
// It is the aggregate root for the transfer workflow; items are only
// changed through its methods.
type TransferRequest struct {
	shared.TenantAggregateRoot
	ReferenceNumber   string
	RequestingStoreID uuid.UUID
	IssuingStoreID    uuid.UUID
	Direction         Direction
	Priority          Priority
	Currency          string
	ExchangeRate      decimal.Decimal
	Status            RequestStatus
	Note              string
	ApprovalNote      string
	RejectionReason   string
	TotalItems        int
	TotalValue        decimal.Decimal
	SubmittedBy       *uuid.UUID
	SubmittedAt       *time.Time
	ApprovedBy        *uuid.UUID
	ApprovedAt        *time.Time
	RejectedBy        *uuid.UUID
	RejectedAt        *time.Time
	FulfilledBy       *uuid.UUID
	FulfilledAt       *time.Time
	ReceivedBy        *uuid.UUID
	ReceivedAt        *time.Time
	CancelledBy       *uuid.UUID
	CancelledAt       *time.Time
	Items             []TransferItem
}

// Header holds the editable header fields of a request
type Header struct {
	RequestingStoreID uuid.UUID
	IssuingStoreID    uuid.UUID
	Direction         Direction
	Priority          Priority
	Currency          string
	ExchangeRate      decimal.Decimal
	Note              string
}

// NewTransferRequest creates a draft request
func NewTransferRequest(tenantID, createdBy uuid.UUID, referenceNumber string, h Header) (*TransferRequest, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrMissingTenant
	}
	if referenceNumber == "" {
		return nil, shared.NewValidationError("reference number is required")
	}

	req := &TransferRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, &createdBy),
		ReferenceNumber:     referenceNumber,
		Status:              RequestStatusDraft,
		TotalValue:          decimal.Zero,
		Items:               make([]TransferItem, 0),
	}
	if err := req.applyHeader(h); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *TransferRequest) applyHeader(h Header) error {
	if h.RequestingStoreID == uuid.Nil || h.IssuingStoreID == uuid.Nil {
		return shared.NewValidationError("requesting and issuing store are required")
	}
	if h.RequestingStoreID == h.IssuingStoreID {
		return shared.NewValidationError("requesting and issuing store must differ")
	}
	if h.Direction == "" {
		h.Direction = DirectionRequest
	}
	if !h.Direction.IsValid() {
		return shared.NewValidationError("unknown direction %q", h.Direction)
	}
	if h.Priority == "" {
		h.Priority = PriorityNormal
	}
	if !h.Priority.IsValid() {
		return shared.NewValidationError("unknown priority %q", h.Priority)
	}
	if h.ExchangeRate.IsZero() {
		h.ExchangeRate = decimal.NewFromInt(1)
	}
	if h.ExchangeRate.IsNegative() {
		return shared.NewValidationError("exchange rate cannot be negative")
	}

	r.RequestingStoreID = h.RequestingStoreID
	r.IssuingStoreID = h.IssuingStoreID
	r.Direction = h.Direction
	r.Priority = h.Priority
	r.Currency = h.Currency
	r.ExchangeRate = h.ExchangeRate
	r.Note = h.Note
	for idx := range r.Items {
		r.Items[idx].Currency = r.Currency
		r.Items[idx].ExchangeRate = r.ExchangeRate
		r.Items[idx].recalculateCost()
	}
	r.recalculateTotals()
	return nil
}

// UpdateHeader changes header fields of a draft
func (r *TransferRequest) UpdateHeader(h Header) error {
	if !r.Status.CanEdit() {
		return shared.NewStateError("cannot edit request %s in %s status", r.ReferenceNumber, r.Status)
	}
	if err := r.applyHeader(h); err != nil {
		return err
	}
	r.touch()
	return nil
}

// AddItem appends a line to a draft and returns its requested log entry
func (r *TransferRequest) AddItem(in ItemInput, actor Actor) (*TransferItem, *QuantityChangeLogEntry, error) {
	if !r.Status.CanEdit() {
		return nil, nil, shared.NewStateError("cannot add items to request %s in %s status", r.ReferenceNumber, r.Status)
	}
	for idx := range r.Items {
		if r.Items[idx].ProductID == in.ProductID && r.Items[idx].BatchNumber == in.BatchNumber {
			return nil, nil, shared.NewValidationError("product %s is already on the request", in.ProductID)
		}
	}

	item, err := newTransferItem(r, in)
	if err != nil {
		return nil, nil, err
	}
	r.Items = append(r.Items, *item)
	r.recalculateTotals()
	r.touch()

	added := &r.Items[len(r.Items)-1]
	entry := newChangeLogEntry(added, ChangeKindRequested, added.Requested, decimal.Zero, added.Requested, actor)
	return added, entry, nil
}

// ReplaceItems swaps every line of a draft for the given inputs.
// Existing lines whose product and batch reappear keep their id.
func (r *TransferRequest) ReplaceItems(inputs []ItemInput, actor Actor) ([]*QuantityChangeLogEntry, error) {
	if !r.Status.CanEdit() {
		return nil, shared.NewStateError("cannot edit request %s in %s status", r.ReferenceNumber, r.Status)
	}
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("a request needs at least one item")
	}

	existing := make(map[string]TransferItem, len(r.Items))
	for _, it := range r.Items {
		existing[lineKey(it.ProductID, it.BatchNumber)] = it
	}

	items := make([]TransferItem, 0, len(inputs))
	entries := make([]*QuantityChangeLogEntry, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		key := lineKey(in.ProductID, in.BatchNumber)
		if seen[key] {
			return nil, shared.NewValidationError("product %s is listed twice", in.ProductID)
		}
		seen[key] = true

		item, err := newTransferItem(r, in)
		if err != nil {
			return nil, err
		}
		previous := decimal.Zero
		if old, ok := existing[key]; ok {
			item.ID = old.ID
			item.CreatedAt = old.CreatedAt
			previous = old.Requested
		}
		items = append(items, *item)
		if !previous.Equal(item.Requested) {
			entries = append(entries, newChangeLogEntry(item, ChangeKindRequested, item.Requested.Sub(previous), previous, item.Requested, actor))
		}
	}

	r.Items = items
	r.recalculateTotals()
	r.touch()
	return entries, nil
}

func lineKey(productID uuid.UUID, batch string) string {
	return productID.String() + "|" + batch
}

// Submit sends a draft for approval
func (r *TransferRequest) Submit(actor Actor) error {
	if !r.Status.CanTransitionTo(RequestStatusSubmitted) {
		return shared.NewStateError("cannot submit request %s in %s status", r.ReferenceNumber, r.Status)
	}
	if len(r.Items) == 0 {
		return shared.NewValidationError("cannot submit request %s without items", r.ReferenceNumber)
	}

	now := time.Now()
	r.Status = RequestStatusSubmitted
	r.SubmittedBy = &actor.UserID
	r.SubmittedAt = &now
	r.touch()

	r.Raise(NewTransferSubmittedEvent(r))
	return nil
}

// Approve sets approved quantities. Lines not listed are approved in full.
// Either every line is updated or none is.
func (r *TransferRequest) Approve(approvals map[uuid.UUID]decimal.Decimal, actor Actor) ([]*QuantityChangeLogEntry, error) {
	if r.Status != RequestStatusSubmitted {
		return nil, shared.NewStateError("cannot approve request %s in %s status", r.ReferenceNumber, r.Status)
	}
	for itemID, qty := range approvals {
		item := r.FindItem(itemID)
		if item == nil {
			return nil, shared.NewValidationError("item %s is not on request %s", itemID, r.ReferenceNumber)
		}
		if err := item.validateApproval(qty); err != nil {
			return nil, err
		}
	}

	entries := make([]*QuantityChangeLogEntry, 0, len(r.Items))
	for idx := range r.Items {
		item := &r.Items[idx]
		qty, ok := approvals[item.ID]
		if !ok {
			qty = item.Requested
		}
		entry, err := item.approve(qty, actor)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	now := time.Now()
	r.ApprovalNote = actor.Note
	r.Status = DeriveApprovalStatus(Snapshots(r.Items))
	if r.Status == RequestStatusRejected {
		r.RejectedBy = &actor.UserID
		r.RejectedAt = &now
		r.RejectionReason = "all items approved with zero quantity"
		r.Raise(NewTransferRejectedEvent(r))
	} else {
		r.ApprovedBy = &actor.UserID
		r.ApprovedAt = &now
		r.Raise(NewTransferApprovedEvent(r))
	}
	r.recalculateTotals()
	r.touch()
	return entries, nil
}

// Reject closes a submitted request; a reason is mandatory
func (r *TransferRequest) Reject(reason string, actor Actor) ([]*QuantityChangeLogEntry, error) {
	if !r.Status.CanTransitionTo(RequestStatusRejected) {
		return nil, shared.NewStateError("cannot reject request %s in %s status", r.ReferenceNumber, r.Status)
	}
	if reason == "" {
		return nil, shared.NewValidationError("rejection reason is required")
	}

	entries := make([]*QuantityChangeLogEntry, 0, len(r.Items))
	for idx := range r.Items {
		entries = append(entries, r.Items[idx].reject(reason, actor))
	}

	now := time.Now()
	r.Status = RequestStatusRejected
	r.RejectionReason = reason
	r.RejectedBy = &actor.UserID
	r.RejectedAt = &now
	r.recalculateTotals()
	r.touch()

	r.Raise(NewTransferRejectedEvent(r))
	return entries, nil
}

// CheckCanIssue returns a state error unless stock may be issued
func (r *TransferRequest) CheckCanIssue() error {
	if !r.Status.CanIssue() {
		return shared.NewStateError("cannot issue request %s in %s status", r.ReferenceNumber, r.Status)
	}
	return nil
}

// CompleteIssue derives the request status after lines were issued
func (r *TransferRequest) CompleteIssue(lines []IssuedLine, actor Actor) {
	r.Status = DeriveIssueStatus(Snapshots(r.Items))
	if r.Status == RequestStatusFulfilled {
		now := time.Now()
		r.FulfilledBy = &actor.UserID
		r.FulfilledAt = &now
	}
	r.touch()
	r.Raise(NewTransferIssuedEvent(r, lines))
}

// CheckCanReceive returns a state error unless stock may be received
func (r *TransferRequest) CheckCanReceive() error {
	if !r.Status.CanReceive() {
		return shared.NewStateError("cannot receive request %s in %s status", r.ReferenceNumber, r.Status)
	}
	return nil
}

// CompleteReceive derives the request status after lines were received
func (r *TransferRequest) CompleteReceive(lines []ReceivedLine, actor Actor) {
	r.Status = DeriveReceiveStatus(Snapshots(r.Items))
	if r.Status == RequestStatusFullyReceived {
		now := time.Now()
		r.ReceivedBy = &actor.UserID
		r.ReceivedAt = &now
	}
	r.touch()
	r.Raise(NewTransferReceivedEvent(r, lines))
}

// Cancel is the requesting side's cancel. Stock already issued stays where it is.
func (r *TransferRequest) Cancel(actor Actor) ([]*QuantityChangeLogEntry, error) {
	if !r.Status.CanRequesterCancel() {
		return nil, shared.NewStateError("cannot cancel request %s in %s status", r.ReferenceNumber, r.Status)
	}

	target := DeriveRequesterCancelStatus(Snapshots(r.Items))
	entries := make([]*QuantityChangeLogEntry, 0, len(r.Items))
	for idx := range r.Items {
		item := &r.Items[idx]
		if item.Status.IsExcluded() {
			continue
		}
		entries = append(entries, item.cancel(actor))
	}
	r.markCancelled(target, actor)
	return entries, nil
}

// PlanReversal returns the lines whose returnable quantity must go back to
// the issuing store on a receiver-side cancel, with the resulting status.
func (r *TransferRequest) PlanReversal() ([]*TransferItem, RequestStatus, error) {
	if !r.Status.CanReceiverCancel() {
		return nil, "", shared.NewStateError("cannot cancel receipt of request %s in %s status", r.ReferenceNumber, r.Status)
	}
	lines := make([]*TransferItem, 0)
	for idx := range r.Items {
		item := &r.Items[idx]
		if item.Status.IsExcluded() {
			continue
		}
		if NeedsReversal(item.Snapshot()) {
			lines = append(lines, item)
		}
	}
	return lines, DeriveReceiverCancelStatus(Snapshots(r.Items)), nil
}

// CompleteReversal settles every line after the returnable stock was moved.
// reversed must be the lines returned by PlanReversal.
func (r *TransferRequest) CompleteReversal(reversed []*TransferItem, target RequestStatus, policy ReversalPolicy, returned []ReturnedLine, actor Actor) []*QuantityChangeLogEntry {
	isReversed := make(map[uuid.UUID]bool, len(reversed))
	for _, it := range reversed {
		isReversed[it.ID] = true
	}

	entries := make([]*QuantityChangeLogEntry, 0, len(r.Items))
	for idx := range r.Items {
		item := &r.Items[idx]
		switch {
		case isReversed[item.ID]:
			entries = append(entries, item.applyReversal(policy, actor))
		case item.Status.IsExcluded():
		default:
			entries = append(entries, item.cancel(actor))
		}
	}
	r.markCancelled(target, actor)
	if len(returned) > 0 {
		r.Raise(NewTransferReversedEvent(r, returned))
	}
	return entries
}

func (r *TransferRequest) markCancelled(target RequestStatus, actor Actor) {
	now := time.Now()
	r.Status = target
	r.CancelledBy = &actor.UserID
	r.CancelledAt = &now
	r.touch()
	r.Raise(NewTransferCancelledEvent(r))
}

// CanDelete returns true while the request is still a draft
func (r *TransferRequest) CanDelete() bool {
	return r.Status == RequestStatusDraft
}

// FindItem returns the item with the given id, or nil
func (r *TransferRequest) FindItem(itemID uuid.UUID) *TransferItem {
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			return &r.Items[idx]
		}
	}
	return nil
}

// MustFindItem returns the item or a validation error naming it
func (r *TransferRequest) MustFindItem(itemID uuid.UUID) (*TransferItem, error) {
	item := r.FindItem(itemID)
	if item == nil {
		return nil, shared.NewValidationError("item %s is not on request %s", itemID, r.ReferenceNumber)
	}
	return item, nil
}

func (r *TransferRequest) recalculateTotals() {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.TotalCost)
	}
	r.TotalItems = len(r.Items)
	r.TotalValue = total
}

func (r *TransferRequest) touch() {
	r.MarkChanged()
}

// FormatReferenceNumber renders TR-YYYYMMDD-NNNN
func FormatReferenceNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", ReferencePrefix(day), seq)
}

// ReferencePrefix is the shared prefix of every reference number issued on day
func ReferencePrefix(day time.Time) string {
	return "TR-" + day.Format("20060102") + "-"
}
