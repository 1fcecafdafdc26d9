package schedule

import (
	"fmt"
	"time"
)

// Due returns every entry of the table that fires at now. An entry fires when
// now's wall-clock time falls in [At, At+tolerance) and its recurrence matches
// now's date. Entries sharing a trigger instant are all returned, in table order.
func Due(now time.Time, table Table, tolerance time.Duration) []Entry {
	if tolerance <= 0 {
		tolerance = time.Minute
	}
	due := make([]Entry, 0)
	for _, e := range table.Entries {
		start := e.At.On(now)
		if now.Before(start) || !now.Before(start.Add(tolerance)) {
			continue
		}
		if !MatchesDay(e.Recurrence, now) {
			continue
		}
		due = append(due, e)
	}
	return due
}

// MatchesDay reports whether the recurrence rule selects the calendar day of t.
func MatchesDay(r Recurrence, t time.Time) bool {
	if !containsWeekday(r.Days, t.Weekday()) {
		return false
	}
	if r.WeekOfMonth <= 0 {
		return true
	}
	nth, ok := NthWeekdayOfMonth(t.Year(), t.Month(), t.Weekday(), r.WeekOfMonth, t.Location())
	return ok && nth.Day() == t.Day()
}

// NthWeekdayOfMonth returns the n-th occurrence (n >= 1) of weekday in the given
// month. The first occurrence is found by searching forward from day 1 for at
// most 7 days. ok is false when the n-th occurrence falls outside the month.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int, loc *time.Location) (time.Time, bool) {
	if n < 1 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	found := false
	for i := 0; i < 7; i++ {
		if first.Weekday() == weekday {
			found = true
			break
		}
		first = first.AddDate(0, 0, 1)
	}
	if !found {
		return time.Time{}, false
	}
	nth := first.AddDate(0, 0, 7*(n-1))
	if nth.Month() != month {
		return time.Time{}, false
	}
	return nth, true
}

// FirstWeekdayOfMonth is NthWeekdayOfMonth with n == 1; it always succeeds.
func FirstWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, loc *time.Location) time.Time {
	d, _ := NthWeekdayOfMonth(year, month, weekday, 1, loc)
	return d
}

// PeriodKey identifies the recurrence instance of kind containing t.
func PeriodKey(kind PeriodKind, t time.Time) string {
	switch kind {
	case PeriodWeekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// ReferenceID is the dedup key of an entry's materialization in a period.
func ReferenceID(entryName, periodKey string) string {
	return entryName + ":" + periodKey
}

func containsWeekday(days []time.Weekday, wd time.Weekday) bool {
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
