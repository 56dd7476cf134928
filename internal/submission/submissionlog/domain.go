// Package submissionlog defines the audit trail of background form deliveries.
//
// Each delivery writes one row when it starts and one when it ends. Rows carry
// the order ID and the trace/span that produced them, never the buyer's
// contact details, so the log can be kept as a diagnostic channel without
// becoming a second copy of the order.
package submissionlog

import "time"

// Status is the lifecycle state of a single delivery.
type Status string

const (
	StatusDispatched Status = "DISPATCHED"
	StatusDelivered  Status = "DELIVERED"
	StatusFailed     Status = "FAILED"
)

// Entry is a single row in the submission_logs table.
type Entry struct {
	OrderID string
	Status  Status

	// Bundle is the human-readable label that was sent, e.g. "2 Braiders".
	Bundle string

	// Error is empty unless Status is FAILED.
	Error string

	TraceID string
	SpanID  string

	RecordedAt time.Time
}
