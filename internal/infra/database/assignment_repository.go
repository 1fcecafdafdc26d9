// internal/infra/database/assignment_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/followup"
)

// Custom errors specific to the follow-up assignment repository
var ErrAssignmentNotFound = fmt.Errorf("follow-up assignment not found")

const assignmentColumns = `id, group_id, group_name, period, subject_id, subject_name, phone, email,
               assigned_date, state, completed_at, last_reminder_date, notes, created_at, updated_at`

// AssignmentRepository persists follow-up assignments. Calendar days are
// stored as YYYY-MM-DD text and interpreted in loc.
type AssignmentRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewAssignmentRepository(db *sql.DB, loc *time.Location) *AssignmentRepository {
	if loc == nil {
		loc = time.Local
	}
	return &AssignmentRepository{db: db, loc: loc}
}

func (r *AssignmentRepository) CreateIfAbsent(ctx context.Context, a *followup.Assignment) (bool, error) {
	now := time.Now().UTC()
	if a.State == "" {
		a.State = followup.StatePending
	}
	query := `INSERT INTO followup_assignments (group_id, group_name, period, subject_id, subject_name, phone, email,
                   assigned_date, state, completed_at, last_reminder_date, notes, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
               ON CONFLICT (group_id, period) DO NOTHING
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		a.GroupID, a.GroupName, a.Period, a.SubjectID, a.SubjectName, a.Phone, a.Email,
		a.AssignedDate.Format(followup.DateLayout), string(a.State), nullTimeUTC(a.CompletedAt),
		nullDate(a.LastReminderDate), a.Notes, now, now,
	).Scan(&a.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil // (group_id, period) already planned
		}
		return false, fmt.Errorf("error creating follow-up assignment: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = now, now
	return true, nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*followup.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM followup_assignments WHERE id = $1`
	a, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error getting follow-up assignment by ID: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepository) GetByGroupAndPeriod(ctx context.Context, groupID, period string) (*followup.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM followup_assignments WHERE group_id = $1 AND period = $2`
	a, err := r.scanOne(r.db.QueryRowContext(ctx, query, groupID, period))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error getting follow-up assignment by group and period: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepository) ListByPeriods(ctx context.Context, periods ...string) ([]*followup.Assignment, error) {
	if len(periods) == 0 {
		return []*followup.Assignment{}, nil
	}
	placeholders := make([]string, len(periods))
	args := make([]any, len(periods))
	for i, p := range periods {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = p
	}
	query := `SELECT ` + assignmentColumns + ` FROM followup_assignments
               WHERE period IN (` + strings.Join(placeholders, ", ") + `)
               ORDER BY assigned_date, group_id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying follow-up assignments by period: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *AssignmentRepository) ListByGroupSince(ctx context.Context, groupID, fromPeriod string) ([]*followup.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM followup_assignments
               WHERE group_id = $1 AND period >= $2
               ORDER BY period DESC`
	rows, err := r.db.QueryContext(ctx, query, groupID, fromPeriod)
	if err != nil {
		return nil, fmt.Errorf("error querying follow-up history: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *AssignmentRepository) MarkCompleted(ctx context.Context, id int64, at time.Time, notes string) (bool, error) {
	query := `UPDATE followup_assignments
               SET state = $1, completed_at = $2, notes = CASE WHEN $3 = '' THEN notes ELSE $3 END, updated_at = $4
               WHERE id = $5 AND state <> $1`
	res, err := r.db.ExecContext(ctx, query, string(followup.StateCompleted), at.UTC(), notes, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("error completing follow-up assignment: %w", err)
	}
	return r.changedOrMissing(ctx, res, id)
}

func (r *AssignmentRepository) MarkReminded(ctx context.Context, id int64, day time.Time) (bool, error) {
	query := `UPDATE followup_assignments
               SET state = $1, last_reminder_date = $2, updated_at = $3
               WHERE id = $4 AND state <> $5`
	res, err := r.db.ExecContext(ctx, query,
		string(followup.StateReminded), day.Format(followup.DateLayout), time.Now().UTC(), id, string(followup.StateCompleted))
	if err != nil {
		return false, fmt.Errorf("error marking follow-up reminded: %w", err)
	}
	return r.changedOrMissing(ctx, res, id)
}

// changedOrMissing turns a zero-row update into ErrAssignmentNotFound when the
// row does not exist, and into (false, nil) when the guard excluded it.
func (r *AssignmentRepository) changedOrMissing(ctx context.Context, res sql.Result, id int64) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AssignmentRepository) scanOne(row rowScanner) (*followup.Assignment, error) {
	var (
		a            followup.Assignment
		assigned     string
		state        string
		lastReminder sql.NullString
	)
	err := row.Scan(&a.ID, &a.GroupID, &a.GroupName, &a.Period, &a.SubjectID, &a.SubjectName, &a.Phone, &a.Email,
		&assigned, &state, &a.CompletedAt, &lastReminder, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.State = followup.State(state)
	if a.AssignedDate, err = time.ParseInLocation(followup.DateLayout, assigned, r.loc); err != nil {
		return nil, fmt.Errorf("invalid assigned_date %q: %w", assigned, err)
	}
	if lastReminder.Valid && lastReminder.String != "" {
		t, err := time.ParseInLocation(followup.DateLayout, lastReminder.String, r.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid last_reminder_date %q: %w", lastReminder.String, err)
		}
		a.LastReminderDate = sql.NullTime{Time: t, Valid: true}
	}
	return &a, nil
}

func (r *AssignmentRepository) scanAll(rows *sql.Rows) ([]*followup.Assignment, error) {
	assignments := make([]*followup.Assignment, 0)
	for rows.Next() {
		a, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning follow-up assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follow-up assignment rows: %w", err)
	}
	return assignments, nil
}

func nullTimeUTC(t sql.NullTime) sql.NullTime {
	if !t.Valid {
		return t
	}
	return sql.NullTime{Time: t.Time.UTC(), Valid: true}
}

func nullDate(t sql.NullTime) sql.NullString {
	if !t.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Time.Format(followup.DateLayout), Valid: true}
}
