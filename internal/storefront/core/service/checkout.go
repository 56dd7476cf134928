package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
)

var _ ports.CheckoutService = (*Checkout)(nil)

// Checkout owns the order flow: bundle selection, draft capture, and the
// optimistic submit that hands the snapshot to the dispatcher.
type Checkout struct {
	drafts        ports.DraftStore
	confirmations ports.ConfirmationStore
	dispatcher    ports.Dispatcher
	newID         func() string
	now           func() time.Time
}

func NewCheckout(drafts ports.DraftStore, confirmations ports.ConfirmationStore, dispatcher ports.Dispatcher) *Checkout {
	return &Checkout{
		drafts:        drafts,
		confirmations: confirmations,
		dispatcher:    dispatcher,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (c *Checkout) Draft(ctx context.Context, sessionID string) (entity.Draft, error) {
	return c.drafts.Load(ctx, sessionID)
}

// UpdateDraft applies mutate to the session draft and stores the result.
// Nothing is stored when mutate fails.
func (c *Checkout) UpdateDraft(ctx context.Context, sessionID string, mutate func(*entity.Draft) error) (entity.Draft, error) {
	d, err := c.drafts.Load(ctx, sessionID)
	if err != nil {
		return entity.Draft{}, err
	}
	if err := mutate(&d); err != nil {
		return entity.Draft{}, err
	}
	if err := c.drafts.Save(ctx, sessionID, d); err != nil {
		return entity.Draft{}, err
	}
	return d, nil
}

func (c *Checkout) SelectBundle(ctx context.Context, sessionID string, index int) (entity.Draft, error) {
	return c.UpdateDraft(ctx, sessionID, func(d *entity.Draft) error {
		return d.SelectBundle(index)
	})
}

// Submit freezes the session draft and returns the confirmation right away.
// Delivery to the form collector runs in the background; its outcome never
// reaches the caller. Store failures after the snapshot is taken are logged
// and do not fail the submit.
func (c *Checkout) Submit(ctx context.Context, sessionID string) (entity.Snapshot, error) {
	d, err := c.drafts.Load(ctx, sessionID)
	if err != nil {
		return entity.Snapshot{}, err
	}

	snap, err := entity.NewSnapshot(d, c.newID(), c.now())
	if err != nil {
		return entity.Snapshot{}, err
	}

	if err := c.confirmations.Put(ctx, snap); err != nil {
		slog.WarnContext(ctx, "confirmation not stored, thank-you page will not survive a reload",
			"order_id", snap.OrderID, "error", err)
	}
	if err := c.drafts.Delete(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "draft reset failed", "order_id", snap.OrderID, "error", err)
	}

	slog.InfoContext(ctx, "order confirmed",
		"order_id", snap.OrderID,
		"bundle", snap.BundleLabel(),
		"quantity", snap.Order.Quantity,
		"state", snap.Order.State,
	)

	c.dispatcher.Dispatch(ctx, snap)
	return snap, nil
}

func (c *Checkout) Confirmation(ctx context.Context, orderID string) (entity.Snapshot, error) {
	snap, err := c.confirmations.Get(ctx, orderID)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("confirmation %s: %w", orderID, err)
	}
	return snap, nil
}
