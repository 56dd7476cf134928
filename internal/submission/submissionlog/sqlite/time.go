package sqlite

import (
	"fmt"
	"time"
)

// fixed width so stored values sort in time order as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// parseTimestamp parses the TEXT timestamps written by Save.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
