package event

import (
	"context"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferEventTypes lists every event the transfer workflow raises
func TransferEventTypes() []string {
	return []string{
		transfer.EventTypeTransferSubmitted,
		transfer.EventTypeTransferApproved,
		transfer.EventTypeTransferRejected,
		transfer.EventTypeTransferIssued,
		transfer.EventTypeTransferReceived,
		transfer.EventTypeTransferCancelled,
		transfer.EventTypeTransferReversed,
	}
}

// LoggingHandler writes one structured log line per transfer event, with the
// full payload at debug level.
type LoggingHandler struct {
	logger *zap.Logger
	codec  *EventCodec
}

// NewLoggingHandler creates a LoggingHandler
func NewLoggingHandler(logger *zap.Logger, codec *EventCodec) *LoggingHandler {
	if codec == nil {
		codec = NewTransferEventCodec()
	}
	return &LoggingHandler{logger: logger.Named("transfer_events"), codec: codec}
}

// Handle logs the event
func (h *LoggingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("request_id", event.AggregateID().String()),
	}
	if te, ok := transferEvent(event); ok {
		fields = append(fields,
			zap.String("reference", te.ReferenceNumber),
			zap.String("status", string(te.Status)))
	}
	h.logger.Info("Transfer event", fields...)

	if ce := h.logger.Check(zap.DebugLevel, "Transfer event payload"); ce != nil {
		payload, err := h.codec.Marshal(event)
		if err != nil {
			return err
		}
		ce.Write(zap.ByteString("payload", payload))
	}
	return nil
}

// EventTypes returns the transfer event types
func (h *LoggingHandler) EventTypes() []string {
	return TransferEventTypes()
}

// MetricsHandler feeds status transitions and moved quantities into TransferMetrics
type MetricsHandler struct {
	metrics *telemetry.TransferMetrics
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(metrics *telemetry.TransferMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Handle records the event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	te, ok := transferEvent(event)
	if !ok {
		return nil
	}
	tenantID := event.TenantID().String()
	h.metrics.RecordTransition(ctx, tenantID, event.EventType(), string(te.Status))

	switch e := event.(type) {
	case *transfer.TransferIssuedEvent:
		h.metrics.RecordQuantity(ctx, tenantID, telemetry.FlowIssued, e.TotalQuantity().InexactFloat64())
	case *transfer.TransferReceivedEvent:
		h.metrics.RecordQuantity(ctx, tenantID, telemetry.FlowReceived, e.TotalQuantity().InexactFloat64())
	case *transfer.TransferReversedEvent:
		total := decimal.Zero
		for _, l := range e.Lines {
			total = total.Add(l.Quantity)
		}
		h.metrics.RecordQuantity(ctx, tenantID, telemetry.FlowReturned, total.InexactFloat64())
	}
	return nil
}

// EventTypes returns the transfer event types
func (h *MetricsHandler) EventTypes() []string {
	return TransferEventTypes()
}

// transferEvent extracts the common payload from any transfer event
func transferEvent(event shared.DomainEvent) (*transfer.TransferEvent, bool) {
	switch e := event.(type) {
	case *transfer.TransferSubmittedEvent:
		return &e.TransferEvent, true
	case *transfer.TransferApprovedEvent:
		return &e.TransferEvent, true
	case *transfer.TransferRejectedEvent:
		return &e.TransferEvent, true
	case *transfer.TransferIssuedEvent:
		return &e.TransferEvent, true
	case *transfer.TransferReceivedEvent:
		return &e.TransferEvent, true
	case *transfer.TransferCancelledEvent:
		return &e.TransferEvent, true
	case *transfer.TransferReversedEvent:
		return &e.TransferEvent, true
	}
	return nil, false
}

var (
	_ shared.EventHandler = (*LoggingHandler)(nil)
	_ shared.EventHandler = (*MetricsHandler)(nil)
)
