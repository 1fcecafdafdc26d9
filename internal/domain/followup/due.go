package followup

import (
	"sort"
	"time"
)

// DefaultResurfaceThreshold is the cooldown, in days, before an incomplete
// follow-up is presented again.
const DefaultResurfaceThreshold = 7

// IsDue reports whether a is presented on today: first presentation on its
// assigned day, or re-surfacing once both the days since assignment and the
// days since the last reminder reach threshold. Completed assignments are never due.
func IsDue(a *Assignment, today time.Time, threshold int) bool {
	if a.Completed() {
		return false
	}
	sinceAssigned := DaysBetween(a.AssignedDate, today)
	if sinceAssigned == 0 {
		return true
	}
	lastTouch := a.AssignedDate
	if a.LastReminderDate.Valid {
		lastTouch = a.LastReminderDate.Time
	}
	return sinceAssigned >= threshold && DaysBetween(lastTouch, today) >= threshold
}

// DueToday filters assignments due on today. Today's first presentations come
// first, then re-surfaced ones ordered by oldest assigned date.
func DueToday(assignments []*Assignment, today time.Time, threshold int) []*Assignment {
	due := make([]*Assignment, 0)
	for _, a := range assignments {
		if IsDue(a, today, threshold) {
			due = append(due, a)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		ti := DaysBetween(due[i].AssignedDate, today) == 0
		tj := DaysBetween(due[j].AssignedDate, today) == 0
		if ti != tj {
			return ti
		}
		return due[i].AssignedDate.Before(due[j].AssignedDate)
	})
	return due
}

// Next picks the follow-up to surface when nothing is due: the oldest overdue
// incomplete assignment, then today's, then the soonest upcoming.
func Next(assignments []*Assignment, today time.Time) *Assignment {
	var best *Assignment
	bestRank := 3
	for _, a := range assignments {
		if a.Completed() {
			continue
		}
		delta := DaysBetween(a.AssignedDate, today)
		rank := 2
		switch {
		case delta > 0:
			rank = 0
		case delta == 0:
			rank = 1
		}
		if best == nil || rank < bestRank || (rank == bestRank && a.AssignedDate.Before(best.AssignedDate)) {
			best, bestRank = a, rank
		}
	}
	return best
}

// Summary is the completion progress of one period.
type Summary struct {
	Period    string
	Total     int
	Completed int
}

func (s Summary) Remaining() int { return s.Total - s.Completed }

// Rate is the completion percentage, 0 when nothing was assigned.
func (s Summary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// Summarize counts completed assignments of period.
func Summarize(period string, assignments []*Assignment) Summary {
	s := Summary{Period: period}
	for _, a := range assignments {
		if a.Period != period {
			continue
		}
		s.Total++
		if a.Completed() {
			s.Completed++
		}
	}
	return s
}
