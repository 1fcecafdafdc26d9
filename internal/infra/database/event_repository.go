// internal/infra/database/event_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"assistant_scheduler/internal/domain/dedup"
)

// Custom errors specific to the materialized event store
var ErrEventNotFound = fmt.Errorf("materialized event not found")

// EventRepository is the SQL-backed dedup store. Atomic check-then-set relies
// on the primary key on reference_id.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Exists(ctx context.Context, referenceID string) (bool, error) {
	query := `SELECT COUNT(*) FROM materialized_events WHERE reference_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, referenceID).Scan(&n); err != nil {
		return false, fmt.Errorf("error checking materialized event: %w", err)
	}
	return n > 0, nil
}

func (r *EventRepository) TryRecord(ctx context.Context, ev *dedup.Event) (bool, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	query := `INSERT INTO materialized_events (reference_id, entry_name, period_key, created_at, delivered)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT (reference_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, ev.ReferenceID, ev.EntryName, ev.PeriodKey, ev.CreatedAt, false)
	if err != nil {
		return false, fmt.Errorf("error recording materialized event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *EventRepository) MarkDelivered(ctx context.Context, referenceID string, at time.Time) error {
	query := `UPDATE materialized_events SET delivered = $1, delivered_at = $2 WHERE reference_id = $3`
	res, err := r.db.ExecContext(ctx, query, true, at.UTC(), referenceID)
	if err != nil {
		return fmt.Errorf("error marking event delivered: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Get(ctx context.Context, referenceID string) (*dedup.Event, error) {
	query := `SELECT reference_id, entry_name, period_key, created_at, delivered, delivered_at
               FROM materialized_events WHERE reference_id = $1`
	ev := dedup.Event{}
	err := r.db.QueryRowContext(ctx, query, referenceID).Scan(
		&ev.ReferenceID, &ev.EntryName, &ev.PeriodKey, &ev.CreatedAt, &ev.Delivered, &ev.DeliveredAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting materialized event: %w", err)
	}
	return &ev, nil
}

func (r *EventRepository) ListSince(ctx context.Context, since time.Time) ([]*dedup.Event, error) {
	query := `SELECT reference_id, entry_name, period_key, created_at, delivered, delivered_at
               FROM materialized_events WHERE created_at >= $1 ORDER BY created_at, reference_id`
	rows, err := r.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("error listing materialized events: %w", err)
	}
	defer rows.Close()

	events := make([]*dedup.Event, 0)
	for rows.Next() {
		ev := &dedup.Event{}
		if err := rows.Scan(&ev.ReferenceID, &ev.EntryName, &ev.PeriodKey, &ev.CreatedAt, &ev.Delivered, &ev.DeliveredAt); err != nil {
			return nil, fmt.Errorf("error scanning materialized event: %w", err)
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating materialized events: %w", err)
	}
	return events, nil
}
