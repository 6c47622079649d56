package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates an entity with a fresh ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot is a versioned entity that buffers the events raised by its
// state changes until the unit of work commits.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	stored  int
	pending []DomainEvent
}

// RestoreAggregateRoot rebuilds a root read from storage at version
func RestoreAggregateRoot(entity BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity, Version: version, stored: version}
}

// StoredVersion is the version last read from or written to storage, 0 if never stored
func (a *BaseAggregateRoot) StoredVersion() int {
	return a.stored
}

// MarkStored records that the current Version has been persisted
func (a *BaseAggregateRoot) MarkStored() {
	a.stored = a.Version
}

// Raise buffers an event for publication after commit
func (a *BaseAggregateRoot) Raise(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// PendingEvents returns the buffered events in the order they were raised
func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

// ClearEvents drops the buffered events
func (a *BaseAggregateRoot) ClearEvents() {
	a.pending = nil
}

// MarkChanged bumps the optimistic lock version and UpdatedAt
func (a *BaseAggregateRoot) MarkChanged() {
	a.UpdatedAt = time.Now()
	a.Version++
}

// TenantAggregateRoot is an aggregate owned by one tenant
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// NewTenantAggregateRoot creates version 1 of a tenant-owned aggregate
func NewTenantAggregateRoot(tenantID uuid.UUID, createdBy *uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1},
		TenantID:          tenantID,
		CreatedBy:         createdBy,
	}
}
