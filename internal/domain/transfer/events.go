package transfer

import (
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeTransferSubmitted = "TransferSubmitted"
	EventTypeTransferApproved  = "TransferApproved"
	EventTypeTransferRejected  = "TransferRejected"
	EventTypeTransferIssued    = "TransferIssued"
	EventTypeTransferReceived  = "TransferReceived"
	EventTypeTransferCancelled = "TransferCancelled"
	EventTypeTransferReversed  = "TransferReversed"
)

// IssuedLine describes stock that left the issuing store
type IssuedLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ReceivedLine describes stock that arrived at the requesting store
type ReceivedLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ReturnedLine describes stock handed back to the issuing store by a reversal
type ReturnedLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TransferEvent is the common payload of transfer events
type TransferEvent struct {
	shared.BaseDomainEvent
	RequestID         uuid.UUID     `json:"request_id"`
	ReferenceNumber   string        `json:"reference_number"`
	RequestingStoreID uuid.UUID     `json:"requesting_store_id"`
	IssuingStoreID    uuid.UUID     `json:"issuing_store_id"`
	Status            RequestStatus `json:"status"`
}

func newTransferEvent(eventType string, r *TransferRequest) TransferEvent {
	return TransferEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, r.ID, r.TenantID),
		RequestID:         r.ID,
		ReferenceNumber:   r.ReferenceNumber,
		RequestingStoreID: r.RequestingStoreID,
		IssuingStoreID:    r.IssuingStoreID,
		Status:            r.Status,
	}
}

// TransferSubmittedEvent is raised when a draft is submitted
type TransferSubmittedEvent struct {
	TransferEvent
	TotalItems int `json:"total_items"`
}

// NewTransferSubmittedEvent creates a TransferSubmittedEvent
func NewTransferSubmittedEvent(r *TransferRequest) *TransferSubmittedEvent {
	return &TransferSubmittedEvent{TransferEvent: newTransferEvent(EventTypeTransferSubmitted, r), TotalItems: r.TotalItems}
}

// TransferApprovedEvent is raised when approval leaves at least one line open
type TransferApprovedEvent struct {
	TransferEvent
	TotalValue decimal.Decimal `json:"total_value"`
}

// NewTransferApprovedEvent creates a TransferApprovedEvent
func NewTransferApprovedEvent(r *TransferRequest) *TransferApprovedEvent {
	return &TransferApprovedEvent{TransferEvent: newTransferEvent(EventTypeTransferApproved, r), TotalValue: r.TotalValue}
}

// TransferRejectedEvent is raised when the request is rejected
type TransferRejectedEvent struct {
	TransferEvent
	Reason string `json:"reason"`
}

// NewTransferRejectedEvent creates a TransferRejectedEvent
func NewTransferRejectedEvent(r *TransferRequest) *TransferRejectedEvent {
	return &TransferRejectedEvent{TransferEvent: newTransferEvent(EventTypeTransferRejected, r), Reason: r.RejectionReason}
}

// TransferIssuedEvent is raised after an issue round
type TransferIssuedEvent struct {
	TransferEvent
	Lines []IssuedLine `json:"lines"`
}

// NewTransferIssuedEvent creates a TransferIssuedEvent
func NewTransferIssuedEvent(r *TransferRequest, lines []IssuedLine) *TransferIssuedEvent {
	return &TransferIssuedEvent{TransferEvent: newTransferEvent(EventTypeTransferIssued, r), Lines: lines}
}

// TotalQuantity sums the issued lines
func (e *TransferIssuedEvent) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// TransferReceivedEvent is raised after a receive round
type TransferReceivedEvent struct {
	TransferEvent
	Lines []ReceivedLine `json:"lines"`
}

// NewTransferReceivedEvent creates a TransferReceivedEvent
func NewTransferReceivedEvent(r *TransferRequest, lines []ReceivedLine) *TransferReceivedEvent {
	return &TransferReceivedEvent{TransferEvent: newTransferEvent(EventTypeTransferReceived, r), Lines: lines}
}

// TotalQuantity sums the received lines
func (e *TransferReceivedEvent) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// TransferCancelledEvent is raised for both requester and receiver cancels
type TransferCancelledEvent struct {
	TransferEvent
}

// NewTransferCancelledEvent creates a TransferCancelledEvent
func NewTransferCancelledEvent(r *TransferRequest) *TransferCancelledEvent {
	return &TransferCancelledEvent{TransferEvent: newTransferEvent(EventTypeTransferCancelled, r)}
}

// TransferReversedEvent is raised when a cancel returned stock to the issuing store
type TransferReversedEvent struct {
	TransferEvent
	Lines []ReturnedLine `json:"lines"`
}

// NewTransferReversedEvent creates a TransferReversedEvent
func NewTransferReversedEvent(r *TransferRequest, lines []ReturnedLine) *TransferReversedEvent {
	return &TransferReversedEvent{TransferEvent: newTransferEvent(EventTypeTransferReversed, r), Lines: lines}
}
