package submissionlog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Reader.Latest when the order has no rows.
var ErrNotFound = errors.New("submissionlog: no entries for order")

// Repository persists delivery log entries. The dispatcher treats a nil
// Repository as "audit disabled".
type Repository interface {
	// Save appends a row; entries are never updated in place.
	Save(ctx context.Context, entry *Entry) error
}

// Reader answers status questions from the log.
type Reader interface {
	Latest(ctx context.Context, orderID string) (*Entry, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
