package event

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event: routing fields in the clear and
// the concrete event as the payload.
type Envelope struct {
	Type        string          `json:"type"`
	EventID     uuid.UUID       `json:"event_id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// EventCodec encodes events into envelopes and decodes them back into their
// concrete types. Register everything before sharing the codec between goroutines.
type EventCodec struct {
	factories map[string]func() shared.DomainEvent
}

// NewEventCodec creates a codec with no known event types
func NewEventCodec() *EventCodec {
	return &EventCodec{factories: make(map[string]func() shared.DomainEvent)}
}

// NewTransferEventCodec returns a codec that knows every transfer event
func NewTransferEventCodec() *EventCodec {
	c := NewEventCodec()
	c.Register(transfer.EventTypeTransferSubmitted, func() shared.DomainEvent { return &transfer.TransferSubmittedEvent{} })
	c.Register(transfer.EventTypeTransferApproved, func() shared.DomainEvent { return &transfer.TransferApprovedEvent{} })
	c.Register(transfer.EventTypeTransferRejected, func() shared.DomainEvent { return &transfer.TransferRejectedEvent{} })
	c.Register(transfer.EventTypeTransferIssued, func() shared.DomainEvent { return &transfer.TransferIssuedEvent{} })
	c.Register(transfer.EventTypeTransferReceived, func() shared.DomainEvent { return &transfer.TransferReceivedEvent{} })
	c.Register(transfer.EventTypeTransferCancelled, func() shared.DomainEvent { return &transfer.TransferCancelledEvent{} })
	c.Register(transfer.EventTypeTransferReversed, func() shared.DomainEvent { return &transfer.TransferReversedEvent{} })
	return c
}

// Register maps an event type to a constructor of its empty value
func (c *EventCodec) Register(eventType string, factory func() shared.DomainEvent) {
	c.factories[eventType] = factory
}

// Knows reports whether an event type can be decoded
func (c *EventCodec) Knows(eventType string) bool {
	_, ok := c.factories[eventType]
	return ok
}

// Types returns the registered event types, sorted
func (c *EventCodec) Types() []string {
	types := make([]string, 0, len(c.factories))
	for t := range c.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Encode wraps an event in an envelope
func (c *EventCodec) Encode(event shared.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	return Envelope{
		Type:        event.EventType(),
		EventID:     event.EventID(),
		TenantID:    event.TenantID(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     payload,
	}, nil
}

// Marshal encodes an event straight to envelope JSON
func (c *EventCodec) Marshal(event shared.DomainEvent) ([]byte, error) {
	env, err := c.Encode(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode rebuilds the concrete event held by an envelope
func (c *EventCodec) Decode(env Envelope) (shared.DomainEvent, error) {
	factory, ok := c.factories[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
	event := factory()
	if err := json.Unmarshal(env.Payload, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", env.Type, err)
	}
	if event.EventID() != env.EventID {
		return nil, fmt.Errorf("envelope %s does not match payload event %s", env.EventID, event.EventID())
	}
	return event, nil
}
