package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time { return day0.AddDate(0, 0, n) }

func newAssignment(assigned time.Time) *Assignment {
	return &Assignment{SubjectID: "s", GroupID: "g", Period: PeriodOf(assigned), AssignedDate: assigned, State: StatePending}
}

func TestIsDue_ResurfaceTiming(t *testing.T) {
	a := newAssignment(day0)

	require.True(t, IsDue(a, day0, 7), "first presentation")
	a.MarkReminded(day0)

	for n := 1; n <= 6; n++ {
		assert.False(t, IsDue(a, dayN(n), 7), "day %d", n)
	}
	assert.True(t, IsDue(a, dayN(7), 7), "day 7")
}

func TestIsDue_RecentReminderSuppressesResurface(t *testing.T) {
	a := newAssignment(day0)
	a.MarkReminded(dayN(10))

	assert.False(t, IsDue(a, dayN(12), 7))
	assert.True(t, IsDue(a, dayN(17), 7))
}

func TestIsDue_UpcomingIsNotDue(t *testing.T) {
	a := newAssignment(dayN(5))
	assert.False(t, IsDue(a, day0, 7))
}

func TestCompletionIsAbsorbing(t *testing.T) {
	a := newAssignment(day0)

	assert.True(t, a.MarkCompleted(dayN(1), "called"))
	assert.False(t, a.MarkCompleted(dayN(2), "again"), "second completion is a no-op")
	assert.Equal(t, "called", a.Notes)
	assert.Equal(t, dayN(1), a.CompletedAt.Time)

	assert.False(t, a.MarkReminded(dayN(3)))
	assert.Equal(t, StateCompleted, a.State)

	for n := 0; n <= 30; n++ {
		assert.False(t, IsDue(a, dayN(n), 7), "day %d", n)
	}
}

func TestStateMachine(t *testing.T) {
	a := newAssignment(day0)
	assert.Equal(t, StatePending, a.State)

	a.MarkReminded(day0)
	assert.Equal(t, StateReminded, a.State)

	a.MarkReminded(dayN(7))
	assert.Equal(t, StateReminded, a.State)
	assert.Equal(t, dayN(7), a.LastReminderDate.Time)

	a.MarkCompleted(dayN(8), "")
	assert.Equal(t, StateCompleted, a.State)
}

func TestDueToday_Ordering(t *testing.T) {
	today := dayN(20)
	old := newAssignment(dayN(0))
	older := newAssignment(dayN(-3))
	todays := newAssignment(today)
	upcoming := newAssignment(dayN(25))
	done := newAssignment(today)
	done.MarkCompleted(today, "")

	due := DueToday([]*Assignment{old, upcoming, older, done, todays}, today, 7)
	require.Len(t, due, 3)
	assert.Same(t, todays, due[0])
	assert.Same(t, older, due[1])
	assert.Same(t, old, due[2])
}

func TestNext(t *testing.T) {
	today := dayN(10)
	upcomingSoon := newAssignment(dayN(12))
	upcomingLate := newAssignment(dayN(20))
	todays := newAssignment(today)
	overdue := newAssignment(dayN(8))
	overdueOld := newAssignment(dayN(2))

	assert.Same(t, overdueOld, Next([]*Assignment{upcomingLate, todays, overdue, overdueOld}, today))
	assert.Same(t, todays, Next([]*Assignment{upcomingLate, todays}, today))
	assert.Same(t, upcomingSoon, Next([]*Assignment{upcomingLate, upcomingSoon}, today))

	overdueOld.MarkCompleted(today, "")
	assert.Same(t, overdue, Next([]*Assignment{overdueOld, overdue}, today))
	assert.Nil(t, Next([]*Assignment{overdueOld}, today))
}

func TestSummarize(t *testing.T) {
	a, b, c := newAssignment(day0), newAssignment(dayN(1)), newAssignment(dayN(2))
	b.MarkCompleted(dayN(3), "")
	other := newAssignment(dayN(-10))
	other.Period = "2026-01"

	s := Summarize("2026-02", []*Assignment{a, b, c, other})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 2, s.Remaining())
	assert.InDelta(t, 33.3, s.Rate(), 0.1)

	assert.Zero(t, Summarize("2026-05", nil).Rate())
}

func TestPreviousPeriod(t *testing.T) {
	p, err := PreviousPeriod("2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-12", p)

	_, err = PreviousPeriod("bogus")
	assert.Error(t, err)
}
