// internal/domain/schedule/entry.go
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Channel is the delivery channel an entry is sent through.
type Channel string

const (
	ChannelInteractive   Channel = "interactive"    // rich chat message, may link to a persisted page
	ChannelSimpleTrigger Channel = "simple-trigger" // single-line actionable reminder with a due date
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelInteractive || c == ChannelSimpleTrigger
}

// PeriodKind scopes idempotency for an entry: one materialization per day, ISO week or month.
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
)

// TimeOfDay is a wall-clock trigger time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant of t on the calendar day of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// Recurrence selects the days an entry fires on.
// WeekOfMonth == 0 fires on every listed weekday; N > 0 fires only on the N-th
// occurrence of a listed weekday within the month.
type Recurrence struct {
	Days        []time.Weekday
	WeekOfMonth int
}

// Entry is one row of the scheduling table. Entries are immutable after load.
type Entry struct {
	Name        string
	At          TimeOfDay
	Recurrence  Recurrence
	Period      PeriodKind
	Channel     Channel
	Template    string
	Description string
	// Followups attaches the day's follow-up assignments to the rendered content.
	Followups bool
}

// DefaultPeriod derives the idempotency scope when the table does not name one.
func DefaultPeriod(r Recurrence) PeriodKind {
	switch {
	case r.WeekOfMonth > 0:
		return PeriodMonthly
	case len(r.Days) == 1:
		return PeriodWeekly
	default:
		return PeriodDaily
	}
}

// Table is the validated, ordered scheduling table.
type Table struct {
	Entries []Entry
}

// Lookup returns the entry with the given name.
func (t Table) Lookup(name string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts short ("sun") and long ("sunday") names, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}
