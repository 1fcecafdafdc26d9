// internal/domain/followup/assignment.go
package followup

import (
	"database/sql"
	"time"
)

// DateLayout is the on-disk and in-period representation of a calendar day.
const DateLayout = "2006-01-02"

// PeriodLayout formats a monthly planning period key ("2026-02").
const PeriodLayout = "2006-01"

// State is the lifecycle state of an assignment.
// Pending -> Reminded -> (Completed | Reminded). Completed is absorbing.
type State string

const (
	StatePending   State = "PENDING"
	StateReminded  State = "REMINDED"
	StateCompleted State = "COMPLETED"
)

// Assignment is the locally owned follow-up record for one group in one period.
// At most one exists per (GroupID, Period).
type Assignment struct {
	ID               int64
	SubjectID        string
	SubjectName      string
	GroupID          string
	GroupName        string
	Phone            string
	Email            string
	Period           string    // "YYYY-MM"
	AssignedDate     time.Time // midnight of the assigned day
	State            State
	CompletedAt      sql.NullTime
	LastReminderDate sql.NullTime
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Completed reports whether the assignment reached its terminal state.
func (a *Assignment) Completed() bool {
	return a.State == StateCompleted
}

// MarkCompleted moves the assignment to Completed. Calling it again has no effect.
// It returns true when the state changed.
func (a *Assignment) MarkCompleted(at time.Time, notes string) bool {
	if a.Completed() {
		return false
	}
	a.State = StateCompleted
	a.CompletedAt = sql.NullTime{Time: at, Valid: true}
	if notes != "" {
		a.Notes = notes
	}
	return true
}

// MarkReminded records a reminder emission on day. No-op once completed.
func (a *Assignment) MarkReminded(day time.Time) bool {
	if a.Completed() {
		return false
	}
	a.State = StateReminded
	a.LastReminderDate = sql.NullTime{Time: Day(day), Valid: true}
	return true
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween counts whole calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// PeriodOf returns the monthly planning period containing t.
func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}

// ParsePeriod parses "YYYY-MM" into the first day of that month in loc.
func ParsePeriod(period string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(PeriodLayout, period, loc)
}

// PreviousPeriod returns the period immediately before period.
func PreviousPeriod(period string) (string, error) {
	start, err := ParsePeriod(period, time.UTC)
	if err != nil {
		return "", err
	}
	return PeriodOf(start.AddDate(0, -1, 0)), nil
}
