package transfer

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput describes one requested line
type ItemInput struct {
	ProductID    uuid.UUID
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	BatchNumber  string
	ExpiryDate   *time.Time
	SerialNumber string
}

// CreateRequestInput contains input for creating a draft request
type CreateRequestInput struct {
	RequestingStoreID uuid.UUID
	IssuingStoreID    uuid.UUID
	Direction         string
	Priority          string
	Currency          string
	ExchangeRate      decimal.Decimal
	Note              string
	Items             []ItemInput
}

// UpdateRequestInput replaces the header and items of a draft
type UpdateRequestInput = CreateRequestInput

// LineQuantity targets one item with a quantity
type LineQuantity struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// ApproveInput sets approved quantities; unlisted items are approved in full
type ApproveInput struct {
	Lines []LineQuantity
	Note  string
}

// IssueInput lists the quantities leaving the issuing store
type IssueInput struct {
	Lines []LineQuantity
	Note  string
}

// ReceiveInput lists the quantities arriving at the requesting store
type ReceiveInput struct {
	Lines []LineQuantity
	Note  string
}

// ListFilter filters request listings
type ListFilter struct {
	Status    string
	StoreID   *uuid.UUID
	Direction string
	Page      int
	PageSize  int
	OrderBy   string
	OrderDir  string
}

// ItemResponse is the API view of a transfer item
type ItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	Requested          decimal.Decimal `json:"requested"`
	Approved           decimal.Decimal `json:"approved"`
	Issued             decimal.Decimal `json:"issued"`
	Received           decimal.Decimal `json:"received"`
	Remaining          decimal.Decimal `json:"remaining"`
	RemainingReceiving decimal.Decimal `json:"remaining_receiving"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	Currency           string          `json:"currency"`
	ExchangeRate       decimal.Decimal `json:"exchange_rate"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	EquivalentAmount   decimal.Decimal `json:"equivalent_amount"`
	Status             string          `json:"status"`
	BatchNumber        string          `json:"batch_number,omitempty"`
	ExpiryDate         *time.Time      `json:"expiry_date,omitempty"`
	SerialNumber       string          `json:"serial_number,omitempty"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
}

// RequestResponse is the API view of a transfer request
type RequestResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	ReferenceNumber   string          `json:"reference_number"`
	RequestingStoreID uuid.UUID       `json:"requesting_store_id"`
	IssuingStoreID    uuid.UUID       `json:"issuing_store_id"`
	Direction         string          `json:"direction"`
	Priority          string          `json:"priority"`
	Currency          string          `json:"currency"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	Status            string          `json:"status"`
	Note              string          `json:"note,omitempty"`
	ApprovalNote      string          `json:"approval_note,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	TotalItems        int             `json:"total_items"`
	TotalValue        decimal.Decimal `json:"total_value"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	FulfilledAt       *time.Time      `json:"fulfilled_at,omitempty"`
	ReceivedAt        *time.Time      `json:"received_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
	Items             []ItemResponse  `json:"items,omitempty"`
}

// ChangeLogResponse is the API view of a quantity change log entry
type ChangeLogResponse struct {
	ID             uuid.UUID       `json:"id"`
	ItemID         uuid.UUID       `json:"item_id"`
	Kind           string          `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	PreviousValue  decimal.Decimal `json:"previous_value"`
	ResultingValue decimal.Decimal `json:"resulting_value"`
	ActorID        uuid.UUID       `json:"actor_id"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MovementResponse is the API view of a movement ledger entry
type MovementResponse struct {
	ID              uuid.UUID       `json:"id"`
	StoreID         uuid.UUID       `json:"store_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	MovementType    string          `json:"movement_type"`
	QuantityIn      decimal.Decimal `json:"quantity_in"`
	QuantityOut     decimal.Decimal `json:"quantity_out"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Currency        string          `json:"currency"`
	ReferenceNumber string          `json:"reference_number"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	MovedAt         time.Time       `json:"moved_at"`
}

// ToItemResponse converts a domain item
func ToItemResponse(it *transfer.TransferItem) ItemResponse {
	return ItemResponse{
		ID:                 it.ID,
		ProductID:          it.ProductID,
		Requested:          it.Requested,
		Approved:           it.Approved,
		Issued:             it.Issued,
		Received:           it.Received,
		Remaining:          it.Remaining,
		RemainingReceiving: it.RemainingReceiving,
		UnitCost:           it.UnitCost,
		Currency:           it.Currency,
		ExchangeRate:       it.ExchangeRate,
		TotalCost:          it.TotalCost,
		EquivalentAmount:   it.EquivalentAmount,
		Status:             string(it.Status),
		BatchNumber:        it.BatchNumber,
		ExpiryDate:         it.ExpiryDate,
		SerialNumber:       it.SerialNumber,
		RejectionReason:    it.RejectionReason,
	}
}

// ToRequestResponse converts a domain request with its items
func ToRequestResponse(r *transfer.TransferRequest) RequestResponse {
	resp := toRequestHeader(r)
	resp.Items = make([]ItemResponse, 0, len(r.Items))
	for i := range r.Items {
		resp.Items = append(resp.Items, ToItemResponse(&r.Items[i]))
	}
	return resp
}

func toRequestHeader(r *transfer.TransferRequest) RequestResponse {
	return RequestResponse{
		ID:                r.ID,
		TenantID:          r.TenantID,
		ReferenceNumber:   r.ReferenceNumber,
		RequestingStoreID: r.RequestingStoreID,
		IssuingStoreID:    r.IssuingStoreID,
		Direction:         string(r.Direction),
		Priority:          string(r.Priority),
		Currency:          r.Currency,
		ExchangeRate:      r.ExchangeRate,
		Status:            string(r.Status),
		Note:              r.Note,
		ApprovalNote:      r.ApprovalNote,
		RejectionReason:   r.RejectionReason,
		TotalItems:        r.TotalItems,
		TotalValue:        r.TotalValue,
		SubmittedAt:       r.SubmittedAt,
		ApprovedAt:        r.ApprovedAt,
		RejectedAt:        r.RejectedAt,
		FulfilledAt:       r.FulfilledAt,
		ReceivedAt:        r.ReceivedAt,
		CancelledAt:       r.CancelledAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
}

// ToRequestListResponses converts requests without their items
func ToRequestListResponses(requests []transfer.TransferRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRequestHeader(&requests[i]))
	}
	return out
}

// ToChangeLogResponses converts log entries
func ToChangeLogResponses(entries []transfer.QuantityChangeLogEntry) []ChangeLogResponse {
	out := make([]ChangeLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ChangeLogResponse{
			ID:             e.ID,
			ItemID:         e.ItemID,
			Kind:           string(e.Kind),
			Quantity:       e.Quantity,
			PreviousValue:  e.PreviousValue,
			ResultingValue: e.ResultingValue,
			ActorID:        e.ActorID,
			Note:           e.Note,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

// ToMovementResponses converts ledger entries
func ToMovementResponses(entries []inventory.MovementLedgerEntry) []MovementResponse {
	out := make([]MovementResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, MovementResponse{
			ID:              e.ID,
			StoreID:         e.StoreID,
			ProductID:       e.ProductID,
			MovementType:    e.MovementType.Name(),
			QuantityIn:      e.QuantityIn,
			QuantityOut:     e.QuantityOut,
			BalanceBefore:   e.BalanceBefore,
			BalanceAfter:    e.BalanceAfter,
			UnitCost:        e.UnitCost,
			Currency:        e.Currency,
			ReferenceNumber: e.ReferenceNumber,
			BatchNumber:     e.BatchNumber,
			MovedAt:         e.MovedAt,
		})
	}
	return out
}
