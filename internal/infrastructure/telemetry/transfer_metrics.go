package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Quantity flow directions recorded by TransferMetrics
const (
	FlowIssued   = "issued"
	FlowReceived = "received"
	FlowReturned = "returned"
)

// TransferMetrics records request transitions and stock flow
type TransferMetrics struct {
	transitions *Counter
	quantity    *FloatCounter
	duration    *Histogram
	failures    *Counter
}

// NewTransferMetrics creates the instruments on meter
func NewTransferMetrics(meter metric.Meter) (*TransferMetrics, error) {
	transitions, err := NewCounter(meter, "transfer_request_transitions_total",
		"Transfer request status transitions", "{transition}")
	if err != nil {
		return nil, err
	}
	quantity, err := NewFloatCounter(meter, "transfer_quantity_total",
		"Stock quantity moved by transfers", "{unit}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "transfer_operation_duration",
		"Transfer operation latency", "ms")
	if err != nil {
		return nil, err
	}
	failures, err := NewCounter(meter, "transfer_operation_failures_total",
		"Transfer operations rolled back", "{failure}")
	if err != nil {
		return nil, err
	}
	return &TransferMetrics{
		transitions: transitions,
		quantity:    quantity,
		duration:    duration,
		failures:    failures,
	}, nil
}

// RecordTransition counts an event moving a request to status
func (m *TransferMetrics) RecordTransition(ctx context.Context, tenantID, event, status string) {
	m.transitions.Inc(ctx,
		attribute.String(SpanAttrTenantID, tenantID),
		attribute.String("event", event),
		attribute.String(SpanAttrStatus, status))
}

// RecordQuantity adds qty to the flow counter
func (m *TransferMetrics) RecordQuantity(ctx context.Context, tenantID, flow string, qty float64) {
	m.quantity.Add(ctx, qty,
		attribute.String(SpanAttrTenantID, tenantID),
		attribute.String("flow", flow))
}

// RecordOperation records the latency of op and counts failures by error code
func (m *TransferMetrics) RecordOperation(ctx context.Context, op string, d time.Duration, errCode string) {
	m.duration.RecordDuration(ctx, d, attribute.String("operation", op))
	if errCode != "" {
		m.failures.Inc(ctx, attribute.String("operation", op), attribute.String("code", errCode))
	}
}
