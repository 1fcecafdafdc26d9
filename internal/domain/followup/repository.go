// internal/domain/followup/repository.go
package followup

import (
	"context"
	"time"
)

// Repository persists follow-up assignments, addressable by (group id, period).
type Repository interface {
	// CreateIfAbsent inserts a unless an assignment already exists for its
	// (GroupID, Period). It reports whether a row was inserted; on insert a.ID,
	// CreatedAt and UpdatedAt are filled.
	CreateIfAbsent(ctx context.Context, a *Assignment) (bool, error)
	GetByID(ctx context.Context, id int64) (*Assignment, error)
	GetByGroupAndPeriod(ctx context.Context, groupID, period string) (*Assignment, error)
	ListByPeriods(ctx context.Context, periods ...string) ([]*Assignment, error)
	// ListByGroupSince returns the group's assignments with period >= fromPeriod.
	ListByGroupSince(ctx context.Context, groupID, fromPeriod string) ([]*Assignment, error)
	// MarkCompleted completes an assignment; it reports false when it was already completed.
	MarkCompleted(ctx context.Context, id int64, at time.Time, notes string) (bool, error)
	// MarkReminded sets the last reminder date unless the assignment is completed.
	MarkReminded(ctx context.Context, id int64, day time.Time) (bool, error)
}
