package models

import (
	"time"

	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequestModel is the persistence model for the TransferRequest aggregate root
type TransferRequestModel struct {
	AggregateModel
	TenantID          uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_transfer_tenant_ref,priority:1"`
	CreatedBy         *uuid.UUID             `gorm:"type:uuid;index"`
	ReferenceNumber   string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_transfer_tenant_ref,priority:2"`
	RequestingStoreID uuid.UUID              `gorm:"type:uuid;not null;index"`
	IssuingStoreID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Direction         transfer.Direction     `gorm:"type:varchar(20);not null;default:'request'"`
	Priority          transfer.Priority      `gorm:"type:varchar(20);not null;default:'normal'"`
	Currency          string                 `gorm:"type:varchar(3);not null"`
	ExchangeRate      decimal.Decimal        `gorm:"type:decimal(18,6);not null;default:1"`
	Status            transfer.RequestStatus `gorm:"type:varchar(40);not null;default:'draft';index"`
	Note              string                 `gorm:"type:text"`
	ApprovalNote      string                 `gorm:"type:text"`
	RejectionReason   string                 `gorm:"type:text"`
	TotalItems        int                    `gorm:"not null;default:0"`
	TotalValue        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	SubmittedBy       *uuid.UUID             `gorm:"type:uuid"`
	SubmittedAt       *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt        *time.Time
	RejectedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectedAt        *time.Time
	FulfilledBy       *uuid.UUID `gorm:"type:uuid"`
	FulfilledAt       *time.Time
	ReceivedBy        *uuid.UUID `gorm:"type:uuid"`
	ReceivedAt        *time.Time
	CancelledBy       *uuid.UUID `gorm:"type:uuid"`
	CancelledAt       *time.Time
	Items             []TransferItemModel `gorm:"foreignKey:RequestID;references:ID"`
}

// TableName returns the table name for GORM
func (TransferRequestModel) TableName() string {
	return "transfer_requests"
}

// ToDomain converts the persistence model to a domain TransferRequest
func (m *TransferRequestModel) ToDomain() *transfer.TransferRequest {
	req := &transfer.TransferRequest{
		ReferenceNumber:   m.ReferenceNumber,
		RequestingStoreID: m.RequestingStoreID,
		IssuingStoreID:    m.IssuingStoreID,
		Direction:         m.Direction,
		Priority:          m.Priority,
		Currency:          m.Currency,
		ExchangeRate:      m.ExchangeRate,
		Status:            m.Status,
		Note:              m.Note,
		ApprovalNote:      m.ApprovalNote,
		RejectionReason:   m.RejectionReason,
		TotalItems:        m.TotalItems,
		TotalValue:        m.TotalValue,
		SubmittedBy:       m.SubmittedBy,
		SubmittedAt:       m.SubmittedAt,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		FulfilledBy:       m.FulfilledBy,
		FulfilledAt:       m.FulfilledAt,
		ReceivedBy:        m.ReceivedBy,
		ReceivedAt:        m.ReceivedAt,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		Items:             make([]transfer.TransferItem, len(m.Items)),
	}
	req.BaseAggregateRoot = m.Aggregate()
	req.TenantID = m.TenantID
	req.CreatedBy = m.CreatedBy
	for i := range m.Items {
		req.Items[i] = *m.Items[i].ToDomain()
	}
	return req
}

// FromDomain populates the header columns. Items are written separately.
func (m *TransferRequestModel) FromDomain(r *transfer.TransferRequest) {
	m.AggregateModel = NewAggregateModel(r.BaseAggregateRoot)
	m.TenantID = r.TenantID
	m.CreatedBy = r.CreatedBy
	m.ReferenceNumber = r.ReferenceNumber
	m.RequestingStoreID = r.RequestingStoreID
	m.IssuingStoreID = r.IssuingStoreID
	m.Direction = r.Direction
	m.Priority = r.Priority
	m.Currency = r.Currency
	m.ExchangeRate = r.ExchangeRate
	m.Status = r.Status
	m.Note = r.Note
	m.ApprovalNote = r.ApprovalNote
	m.RejectionReason = r.RejectionReason
	m.TotalItems = r.TotalItems
	m.TotalValue = r.TotalValue
	m.SubmittedBy = r.SubmittedBy
	m.SubmittedAt = r.SubmittedAt
	m.ApprovedBy = r.ApprovedBy
	m.ApprovedAt = r.ApprovedAt
	m.RejectedBy = r.RejectedBy
	m.RejectedAt = r.RejectedAt
	m.FulfilledBy = r.FulfilledBy
	m.FulfilledAt = r.FulfilledAt
	m.ReceivedBy = r.ReceivedBy
	m.ReceivedAt = r.ReceivedAt
	m.CancelledBy = r.CancelledBy
	m.CancelledAt = r.CancelledAt
}

// TransferRequestModelFromDomain creates a header model from a domain TransferRequest
func TransferRequestModelFromDomain(r *transfer.TransferRequest) *TransferRequestModel {
	m := &TransferRequestModel{}
	m.FromDomain(r)
	return m
}

// TransferItemModel is the persistence model for TransferItem
type TransferItemModel struct {
	BaseModel
	TenantID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	RequestID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Requested          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Approved           decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Issued             decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Received           decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Remaining          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingReceiving decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost           decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Currency           string              `gorm:"type:varchar(3);not null"`
	ExchangeRate       decimal.Decimal     `gorm:"type:decimal(18,6);not null;default:1"`
	TotalCost          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	EquivalentAmount   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status             transfer.ItemStatus `gorm:"type:varchar(30);not null;default:'pending'"`
	BatchNumber        string              `gorm:"type:varchar(50)"`
	ExpiryDate         *time.Time          `gorm:"type:date"`
	SerialNumber       string              `gorm:"type:varchar(100)"`
	RejectionReason    string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransferItemModel) TableName() string {
	return "transfer_items"
}

// ToDomain converts the persistence model to a domain TransferItem
func (m *TransferItemModel) ToDomain() *transfer.TransferItem {
	return &transfer.TransferItem{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		RequestID:          m.RequestID,
		ProductID:          m.ProductID,
		Requested:          m.Requested,
		Approved:           m.Approved,
		Issued:             m.Issued,
		Received:           m.Received,
		Remaining:          m.Remaining,
		RemainingReceiving: m.RemainingReceiving,
		UnitCost:           m.UnitCost,
		Currency:           m.Currency,
		ExchangeRate:       m.ExchangeRate,
		TotalCost:          m.TotalCost,
		EquivalentAmount:   m.EquivalentAmount,
		Status:             m.Status,
		BatchNumber:        m.BatchNumber,
		ExpiryDate:         m.ExpiryDate,
		SerialNumber:       m.SerialNumber,
		RejectionReason:    m.RejectionReason,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// TransferItemModelFromDomain creates a persistence model from a domain TransferItem
func TransferItemModelFromDomain(i *transfer.TransferItem) *TransferItemModel {
	return &TransferItemModel{
		BaseModel: BaseModel{
			ID:        i.ID,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		},
		TenantID:           i.TenantID,
		RequestID:          i.RequestID,
		ProductID:          i.ProductID,
		Requested:          i.Requested,
		Approved:           i.Approved,
		Issued:             i.Issued,
		Received:           i.Received,
		Remaining:          i.Remaining,
		RemainingReceiving: i.RemainingReceiving,
		UnitCost:           i.UnitCost,
		Currency:           i.Currency,
		ExchangeRate:       i.ExchangeRate,
		TotalCost:          i.TotalCost,
		EquivalentAmount:   i.EquivalentAmount,
		Status:             i.Status,
		BatchNumber:        i.BatchNumber,
		ExpiryDate:         i.ExpiryDate,
		SerialNumber:       i.SerialNumber,
		RejectionReason:    i.RejectionReason,
	}
}

// QuantityChangeLogModel is one append-only audit row
type QuantityChangeLogModel struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_qty_log_request,priority:1"`
	RequestID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_qty_log_request,priority:2"`
	ItemID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	Kind           transfer.ChangeKind `gorm:"type:varchar(20);not null"`
	Quantity       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PreviousValue  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ResultingValue decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ActorID        uuid.UUID           `gorm:"type:uuid;not null"`
	Note           string              `gorm:"type:text"`
	CreatedAt      time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (QuantityChangeLogModel) TableName() string {
	return "transfer_quantity_logs"
}

// ToDomain converts the persistence model to a domain QuantityChangeLogEntry
func (m *QuantityChangeLogModel) ToDomain() *transfer.QuantityChangeLogEntry {
	return &transfer.QuantityChangeLogEntry{
		ID:             m.ID,
		TenantID:       m.TenantID,
		RequestID:      m.RequestID,
		ItemID:         m.ItemID,
		Kind:           m.Kind,
		Quantity:       m.Quantity,
		PreviousValue:  m.PreviousValue,
		ResultingValue: m.ResultingValue,
		ActorID:        m.ActorID,
		Note:           m.Note,
		CreatedAt:      m.CreatedAt,
	}
}

// QuantityChangeLogModelFromDomain creates a persistence model from a domain entry
func QuantityChangeLogModelFromDomain(e *transfer.QuantityChangeLogEntry) *QuantityChangeLogModel {
	return &QuantityChangeLogModel{
		ID:             e.ID,
		TenantID:       e.TenantID,
		RequestID:      e.RequestID,
		ItemID:         e.ItemID,
		Kind:           e.Kind,
		Quantity:       e.Quantity,
		PreviousValue:  e.PreviousValue,
		ResultingValue: e.ResultingValue,
		ActorID:        e.ActorID,
		Note:           e.Note,
		CreatedAt:      e.CreatedAt,
	}
}
