package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler("TransferIssued", "TransferReceived")

	registry.Register(handler, "TransferIssued", "TransferReceived")

	assert.Len(t, registry.GetHandlers("TransferIssued"), 1)
	assert.Len(t, registry.GetHandlers("TransferReceived"), 1)
	assert.Empty(t, registry.GetHandlers("TransferRejected"))
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler)

	assert.Len(t, registry.GetHandlers("TransferIssued"), 1)
	assert.Len(t, registry.GetHandlers("AnythingElse"), 1)
}

func TestHandlerRegistry_Register_Twice(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler("TransferIssued")
	wildcard := newTestHandler()

	registry.Register(handler, "TransferIssued")
	registry.Register(handler, "TransferIssued")
	registry.Register(wildcard)
	registry.Register(wildcard)

	assert.Len(t, registry.GetHandlers("TransferIssued"), 2)
}

func TestHandlerRegistry_GetHandlers_TypeSpecificFirst(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := newTestHandler()
	specific := newTestHandler("TransferIssued")

	registry.Register(wildcard)
	registry.Register(specific, "TransferIssued")

	handlers := registry.GetHandlers("TransferIssued")
	assert.Len(t, handlers, 2)
	assert.Same(t, specific, handlers[0])
	assert.Same(t, wildcard, handlers[1])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := newTestHandler("TransferIssued")
	wildcard := newTestHandler()
	registry.Register(specific, "TransferIssued", "TransferReceived")
	registry.Register(wildcard)

	registry.Unregister(specific)
	assert.Len(t, registry.GetHandlers("TransferIssued"), 1)
	assert.Len(t, registry.GetHandlers("TransferReceived"), 1)

	registry.Unregister(wildcard)
	assert.Empty(t, registry.GetHandlers("TransferIssued"))
}
