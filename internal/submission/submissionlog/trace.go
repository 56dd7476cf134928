package submissionlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty when
// no valid span is present, which is the normal case with tracing disabled.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry stamped with the current trace and time.
func NewEntry(ctx context.Context, orderID string, status Status, bundle string, cause error) *Entry {
	ti := ExtractTraceInfo(ctx)

	var msg string
	if cause != nil {
		msg = cause.Error()
	}

	return &Entry{
		OrderID:    orderID,
		Status:     status,
		Bundle:     bundle,
		Error:      msg,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		RecordedAt: time.Now().UTC(),
	}
}
