package transfer

import (
	"context"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
)

// RequestFilter narrows request listings
type RequestFilter struct {
	shared.Filter
	Status    RequestStatus
	StoreID   uuid.UUID // matches either side
	Direction Direction
}

// RequestRepository defines persistence for transfer requests and their items
type RequestRepository interface {
	// FindByID loads a request with its items
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*TransferRequest, error)

	// FindByIDForUpdate loads a request with its items and locks the header row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*TransferRequest, error)

	// FindByReferenceNumber loads a request by its reference number
	FindByReferenceNumber(ctx context.Context, tenantID uuid.UUID, referenceNumber string) (*TransferRequest, error)

	// FindAll lists requests matching the filter and returns the total count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter RequestFilter) ([]TransferRequest, int64, error)

	// Save creates or updates a request and its items
	Save(ctx context.Context, req *TransferRequest) error

	// Delete removes a request and its items
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// NextReferenceNumber returns the next unused reference number for day
	NextReferenceNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error)
}

// QuantityChangeLogRepository is append-only
type QuantityChangeLogRepository interface {
	// Append stores new entries
	Append(ctx context.Context, entries ...*QuantityChangeLogEntry) error

	// ListByRequest lists entries of every item of a request, oldest first
	ListByRequest(ctx context.Context, tenantID, requestID uuid.UUID) ([]QuantityChangeLogEntry, error)

	// ListByItem lists entries of one item, oldest first
	ListByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]QuantityChangeLogEntry, error)

	// CountByRequest counts entries of a request
	CountByRequest(ctx context.Context, tenantID, requestID uuid.UUID) (int64, error)
}
