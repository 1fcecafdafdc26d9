package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func weeklySunday() Entry {
	return Entry{
		Name:       "weekly",
		At:         TimeOfDay{Hour: 20},
		Recurrence: Recurrence{Days: []time.Weekday{time.Sunday}},
		Period:     PeriodWeekly,
		Channel:    ChannelInteractive,
		Template:   "weekly",
	}
}

func TestDue_WeeklySundayEntry(t *testing.T) {
	table := Table{Entries: []Entry{weeklySunday()}}

	// 2026-02-04 is a Wednesday, 2026-02-08 a Sunday.
	assert.Empty(t, Due(at(2026, 2, 4, 20, 0), table, time.Minute))

	due := Due(at(2026, 2, 8, 20, 0), table, time.Minute)
	require.Len(t, due, 1)
	assert.Equal(t, "weekly", due[0].Name)
}

func TestDue_ToleranceWindow(t *testing.T) {
	table := Table{Entries: []Entry{weeklySunday()}}

	assert.Empty(t, Due(at(2026, 2, 8, 19, 59), table, 5*time.Minute), "before trigger time")
	assert.Len(t, Due(at(2026, 2, 8, 20, 4), table, 5*time.Minute), 1, "inside window")
	assert.Empty(t, Due(at(2026, 2, 8, 20, 5), table, 5*time.Minute), "window is half-open")
}

func TestDue_ReturnsAllEntriesSharingTrigger(t *testing.T) {
	upload := weeklySunday()
	upload.Name = "weekly_upload"
	upload.Channel = ChannelSimpleTrigger
	monthly := weeklySunday()
	monthly.Name = "monthly"
	monthly.Recurrence.WeekOfMonth = 1
	monthly.Period = PeriodMonthly

	table := Table{Entries: []Entry{upload, weeklySunday(), monthly}}

	// First Sunday of February 2026.
	due := Due(at(2026, 2, 1, 20, 0), table, time.Minute)
	require.Len(t, due, 3)
	assert.Equal(t, []string{"weekly_upload", "weekly", "monthly"}, []string{due[0].Name, due[1].Name, due[2].Name})

	// Second Sunday: monthly drops out.
	due = Due(at(2026, 2, 8, 20, 0), table, time.Minute)
	assert.Len(t, due, 2)
}

func TestFirstWeekdayOfMonth_AllMonthStarts(t *testing.T) {
	// Months of 2026 cover every weekday for the 1st; collect one per weekday.
	seen := map[time.Weekday]bool{}
	for m := time.January; m <= time.December; m++ {
		start := time.Date(2026, m, 1, 0, 0, 0, 0, time.UTC).Weekday()
		if seen[start] {
			continue
		}
		seen[start] = true

		got := FirstWeekdayOfMonth(2026, m, time.Sunday, time.UTC)
		assert.Equal(t, time.Sunday, got.Weekday(), "month %s", m)
		assert.GreaterOrEqual(t, got.Day(), 1)
		assert.LessOrEqual(t, got.Day(), 7)
		assert.Equal(t, m, got.Month())
	}
	assert.Len(t, seen, 7)
}

func TestNthWeekdayOfMonth(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		day   int
		found bool
	}{
		{"first", 1, 1, true},
		{"second", 2, 8, true},
		{"fifth", 5, 29, true},
		{"sixth is outside the month", 6, 0, false},
		{"zero is invalid", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// March 2026 starts on a Sunday.
			got, ok := NthWeekdayOfMonth(2026, time.March, time.Sunday, tt.n, time.UTC)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.day, got.Day())
			}
		})
	}
}

func TestMatchesDay_MonthlyRule(t *testing.T) {
	r := Recurrence{Days: []time.Weekday{time.Sunday}, WeekOfMonth: 1}

	assert.True(t, MatchesDay(r, at(2026, 3, 1, 0, 0)))
	assert.False(t, MatchesDay(r, at(2026, 3, 8, 0, 0)))
	assert.False(t, MatchesDay(r, at(2026, 3, 2, 0, 0)), "Monday")
	// April 2026 starts on a Wednesday; first Sunday is the 5th.
	assert.True(t, MatchesDay(r, at(2026, 4, 5, 0, 0)))
}

func TestPeriodKeyAndReferenceID(t *testing.T) {
	now := at(2026, 1, 1, 5, 30) // Thursday of ISO week 1 of 2026

	assert.Equal(t, "2026-01-01", PeriodKey(PeriodDaily, now))
	assert.Equal(t, "2026-W01", PeriodKey(PeriodWeekly, now))
	assert.Equal(t, "2026-01", PeriodKey(PeriodMonthly, now))

	// ISO week-year differs from the calendar year at the boundary.
	assert.Equal(t, "2026-W53", PeriodKey(PeriodWeekly, at(2027, 1, 1, 0, 0)))

	assert.Equal(t, "weekly:2026-W01", ReferenceID("weekly", PeriodKey(PeriodWeekly, now)))
}

func TestDefaultPeriod(t *testing.T) {
	assert.Equal(t, PeriodMonthly, DefaultPeriod(Recurrence{Days: []time.Weekday{time.Sunday}, WeekOfMonth: 1}))
	assert.Equal(t, PeriodWeekly, DefaultPeriod(Recurrence{Days: []time.Weekday{time.Sunday}}))
	assert.Equal(t, PeriodDaily, DefaultPeriod(Recurrence{Days: []time.Weekday{time.Monday, time.Tuesday}}))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("05:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 5, Minute: 30}, tod)
	assert.Equal(t, "05:30", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}
