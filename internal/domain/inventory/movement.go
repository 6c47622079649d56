package inventory

import (
	"fmt"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType is the resolved kind of a physical stock movement
type MovementType int

const (
	MovementTypeUnknown MovementType = iota
	// MovementTypeStoreIssue is stock leaving the issuing store
	MovementTypeStoreIssue
	// MovementTypeStoreReceipt is stock arriving at the requesting store
	MovementTypeStoreReceipt
	// MovementTypeStoreReturn is unreceived stock going back to the issuing store
	MovementTypeStoreReturn
)

// Names under which the movement types are stored in the movement_types table
const (
	MovementNameStoreIssue   = "Store Issue"
	MovementNameStoreReceipt = "Store Receipt"
	MovementNameStoreReturn  = "Store Return"
)

// AllMovementTypes lists the types the transfer workflow needs at startup
func AllMovementTypes() []MovementType {
	return []MovementType{MovementTypeStoreIssue, MovementTypeStoreReceipt, MovementTypeStoreReturn}
}

// Name returns the registry name of the movement type
func (t MovementType) Name() string {
	switch t {
	case MovementTypeStoreIssue:
		return MovementNameStoreIssue
	case MovementTypeStoreReceipt:
		return MovementNameStoreReceipt
	case MovementTypeStoreReturn:
		return MovementNameStoreReturn
	}
	return "Unknown"
}

// String returns the registry name
func (t MovementType) String() string {
	return t.Name()
}

// IsInbound reports whether the movement adds stock to its store
func (t MovementType) IsInbound() bool {
	return t == MovementTypeStoreReceipt || t == MovementTypeStoreReturn
}

// ParseMovementType resolves a registry name to the enum
func ParseMovementType(name string) (MovementType, error) {
	for _, t := range AllMovementTypes() {
		if t.Name() == name {
			return t, nil
		}
	}
	return MovementTypeUnknown, fmt.Errorf("unknown movement type %q", name)
}

// MovementTypeRegistry maps the enum to the identifiers of the persisted
// movement type rows. It is built once at startup and is read-only afterwards.
type MovementTypeRegistry struct {
	ids map[MovementType]uuid.UUID
}

// NewMovementTypeRegistry builds a registry from name-keyed ids.
// Every type in AllMovementTypes must be present.
func NewMovementTypeRegistry(idsByName map[string]uuid.UUID) (*MovementTypeRegistry, error) {
	reg := &MovementTypeRegistry{ids: make(map[MovementType]uuid.UUID, len(idsByName))}
	for name, id := range idsByName {
		t, err := ParseMovementType(name)
		if err != nil {
			continue
		}
		reg.ids[t] = id
	}
	for _, t := range AllMovementTypes() {
		if _, ok := reg.ids[t]; !ok {
			return nil, shared.NewReferenceError("movement type %q is not registered", t.Name())
		}
	}
	return reg, nil
}

// ID returns the persisted id for a movement type
func (r *MovementTypeRegistry) ID(t MovementType) uuid.UUID {
	return r.ids[t]
}

// MovementLedgerEntry is an immutable record of one physical stock movement.
// Exactly one of QuantityIn and QuantityOut is positive.
type MovementLedgerEntry struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	StoreID         uuid.UUID
	ProductID       uuid.UUID
	MovementType    MovementType
	MovementTypeID  uuid.UUID
	QuantityIn      decimal.Decimal
	QuantityOut     decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	UnitCost        decimal.Decimal
	Currency        string
	SourceType      string
	SourceID        uuid.UUID
	SourceLineID    uuid.UUID
	ReferenceNumber string
	PeriodID        uuid.UUID
	BatchNumber     string
	Note            string
	OperatorID      *uuid.UUID
	MovedAt         time.Time
}

// SourceTypeTransferRequest tags ledger rows written by the transfer workflow
const SourceTypeTransferRequest = "transfer_request"

// MovementParams carries everything needed to record a movement
type MovementParams struct {
	TenantID        uuid.UUID
	Type            MovementType
	Registry        *MovementTypeRegistry
	Balance         *InventoryBalance
	Quantity        decimal.Decimal
	BalanceBefore   decimal.Decimal
	UnitCost        decimal.Decimal
	Currency        string
	SourceID        uuid.UUID
	SourceLineID    uuid.UUID
	ReferenceNumber string
	PeriodID        uuid.UUID
	BatchNumber     string
	Note            string
	OperatorID      *uuid.UUID
}

// NewMovementLedgerEntry records a movement that has already been applied to Balance
func NewMovementLedgerEntry(p MovementParams) (*MovementLedgerEntry, error) {
	if p.Balance == nil {
		return nil, shared.NewReferenceError("movement requires a balance record")
	}
	if p.Registry == nil {
		return nil, shared.NewReferenceError("movement type registry is not loaded")
	}
	if !p.Quantity.IsPositive() {
		return nil, shared.NewValidationError("movement quantity must be positive")
	}
	if p.PeriodID == uuid.Nil {
		return nil, shared.NewReferenceError("movement requires an open accounting period")
	}
	if p.Type == MovementTypeUnknown {
		return nil, shared.NewValidationError("movement type is required")
	}

	entry := &MovementLedgerEntry{
		ID:              uuid.New(),
		TenantID:        p.TenantID,
		StoreID:         p.Balance.StoreID,
		ProductID:       p.Balance.ProductID,
		MovementType:    p.Type,
		MovementTypeID:  p.Registry.ID(p.Type),
		QuantityIn:      decimal.Zero,
		QuantityOut:     decimal.Zero,
		BalanceBefore:   p.BalanceBefore,
		BalanceAfter:    p.Balance.Quantity,
		UnitCost:        p.UnitCost,
		Currency:        p.Currency,
		SourceType:      SourceTypeTransferRequest,
		SourceID:        p.SourceID,
		SourceLineID:    p.SourceLineID,
		ReferenceNumber: p.ReferenceNumber,
		PeriodID:        p.PeriodID,
		BatchNumber:     p.BatchNumber,
		Note:            p.Note,
		OperatorID:      p.OperatorID,
		MovedAt:         time.Now(),
	}
	if p.Type.IsInbound() {
		entry.QuantityIn = p.Quantity
	} else {
		entry.QuantityOut = p.Quantity
	}
	return entry, nil
}

// SignedQuantity returns in minus out
func (e *MovementLedgerEntry) SignedQuantity() decimal.Decimal {
	return e.QuantityIn.Sub(e.QuantityOut)
}

// TotalCost returns the moved quantity valued at the snapshot cost
func (e *MovementLedgerEntry) TotalCost() decimal.Decimal {
	return e.QuantityIn.Add(e.QuantityOut).Mul(e.UnitCost)
}
