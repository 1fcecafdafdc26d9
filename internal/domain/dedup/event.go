// internal/domain/dedup/event.go
package dedup

import (
	"context"
	"database/sql"
	"time"
)

// Event records that a schedule entry was materialized for a period.
// Exactly one exists per ReferenceID; normal operation never deletes it.
type Event struct {
	ReferenceID string
	EntryName   string
	PeriodKey   string
	CreatedAt   time.Time
	Delivered   bool
	DeliveredAt sql.NullTime
}

// Store is the keyed record of materialized events.
type Store interface {
	Exists(ctx context.Context, referenceID string) (bool, error)
	// TryRecord inserts ev atomically. It returns false, nil when another caller
	// already recorded the same reference id.
	TryRecord(ctx context.Context, ev *Event) (bool, error)
	MarkDelivered(ctx context.Context, referenceID string, at time.Time) error
	Get(ctx context.Context, referenceID string) (*Event, error)
	ListSince(ctx context.Context, since time.Time) ([]*Event, error)
}
