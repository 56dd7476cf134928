// Package submission runs the background delivery of confirmed orders to the
// form collector. Deliveries are fire-and-forget: a failure is logged and
// audited, never retried, and never reported to the buyer.
package submission

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog"
)

var _ ports.Dispatcher = (*Dispatcher)(nil)

type Dispatcher struct {
	collector ports.FormCollector
	audit     submissionlog.Repository // nil-safe
	inflight  sync.WaitGroup
}

// NewDispatcher wires the collector and an optional audit log.
func NewDispatcher(collector ports.FormCollector, audit submissionlog.Repository) *Dispatcher {
	return &Dispatcher{collector: collector, audit: audit}
}

// Dispatch starts delivering snap and returns without waiting. The request
// context is detached so the delivery outlives the HTTP response while still
// carrying its trace.
func (d *Dispatcher) Dispatch(ctx context.Context, snap entity.Snapshot) {
	ctx = context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go d.deliver(ctx, snap)
}

func (d *Dispatcher) deliver(ctx context.Context, snap entity.Snapshot) {
	defer d.inflight.Done()

	ctx, span := otel.Tracer("storefront/submission").Start(ctx, "submission.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", snap.OrderID),
		attribute.String("order.bundle", snap.BundleLabel()),
	)

	d.record(ctx, snap, submissionlog.StatusDispatched, nil)

	if err := d.collector.Submit(ctx, snap); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form submission failed")
		slog.ErrorContext(ctx, "background form submission failed",
			"order_id", snap.OrderID,
			"error", err,
		)
		d.record(ctx, snap, submissionlog.StatusFailed, err)
		return
	}

	slog.InfoContext(ctx, "form submission delivered", "order_id", snap.OrderID)
	d.record(ctx, snap, submissionlog.StatusDelivered, nil)
}

func (d *Dispatcher) record(ctx context.Context, snap entity.Snapshot, status submissionlog.Status, cause error) {
	if d.audit == nil {
		return
	}
	entry := submissionlog.NewEntry(ctx, snap.OrderID, status, snap.BundleLabel(), cause)
	if err := d.audit.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "submission audit write failed",
			"order_id", snap.OrderID,
			"status", status,
			"error", err,
		)
	}
}

// Drain blocks until every in-flight delivery has finished or ctx is done.
// Only process shutdown calls it; request handling never waits on a delivery.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
