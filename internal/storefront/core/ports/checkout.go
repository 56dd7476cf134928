package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
)

// ErrNotFound is returned by stores when the key is unknown or has expired.
var ErrNotFound = errors.New("not found")

// CheckoutService is what the HTTP layer drives.
type CheckoutService interface {
	Draft(ctx context.Context, sessionID string) (entity.Draft, error)
	UpdateDraft(ctx context.Context, sessionID string, mutate func(*entity.Draft) error) (entity.Draft, error)
	SelectBundle(ctx context.Context, sessionID string, index int) (entity.Draft, error)
	Submit(ctx context.Context, sessionID string) (entity.Snapshot, error)
	Confirmation(ctx context.Context, orderID string) (entity.Snapshot, error)
}

// DraftStore holds the one in-progress draft per session.
type DraftStore interface {
	Load(ctx context.Context, sessionID string) (entity.Draft, error)
	Save(ctx context.Context, sessionID string, draft entity.Draft) error
	// Delete drops the session draft; the next Load starts fresh.
	Delete(ctx context.Context, sessionID string) error
}

// ConfirmationStore keeps snapshots around long enough to re-render the thank-you page.
type ConfirmationStore interface {
	Put(ctx context.Context, snap entity.Snapshot) error
	Get(ctx context.Context, orderID string) (entity.Snapshot, error)
}

// FormCollector delivers a snapshot to the hosted form-collection endpoint.
type FormCollector interface {
	Submit(ctx context.Context, snap entity.Snapshot) error
}

// Dispatcher starts the background delivery of a snapshot and returns immediately.
type Dispatcher interface {
	Dispatch(ctx context.Context, snap entity.Snapshot)
}
