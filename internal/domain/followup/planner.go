package followup

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEligibleDays = errors.New("period has no eligible days")

// PlanWarning reports a group that could not be planned.
type PlanWarning struct {
	GroupID   string
	GroupName string
	Reason    string
}

func (w PlanWarning) String() string {
	if w.GroupName != "" {
		return fmt.Sprintf("group %s (%s): %s", w.GroupID, w.GroupName, w.Reason)
	}
	return fmt.Sprintf("group %s: %s", w.GroupID, w.Reason)
}

// Plan is the deterministic outcome of planning one period.
type Plan struct {
	Period       string
	EligibleDays []time.Time
	Assignments  []*Assignment // ordered by group id
	Warnings     []PlanWarning
}

// EligibleDays lists the days of month in order, skipping blackout weekdays.
func EligibleDays(year int, month time.Month, blackout []time.Weekday, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	days := make([]time.Time, 0, 31)
	for d := time.Date(year, month, 1, 0, 0, 0, 0, loc); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if isBlackout(blackout, d.Weekday()) {
			continue
		}
		days = append(days, d)
	}
	return days
}

// SpreadIndex maps target i of n onto one of d days: floor(i*d/n).
// Every day receives floor(n/d) or ceil(n/d) targets.
func SpreadIndex(i, n, d int) int {
	if n <= 0 || d <= 0 {
		return 0
	}
	return (i * d) / n
}

// SelectRepresentative picks the group member to contact this period.
// history holds the group's assignments from the last lookback periods. The
// first eligible member not targeted in that window wins; if every member was
// targeted, the one targeted longest ago wins. With no history (or lookback 0)
// this is the first eligible member.
func SelectRepresentative(g Group, history []*Assignment, lookback int) (Subject, bool) {
	eligible := g.Eligible()
	if len(eligible) == 0 {
		return Subject{}, false
	}
	if lookback <= 0 || len(history) == 0 {
		return eligible[0], true
	}

	lastTargeted := make(map[string]string, len(history))
	for _, a := range history {
		if prev, ok := lastTargeted[a.SubjectID]; !ok || a.Period > prev {
			lastTargeted[a.SubjectID] = a.Period
		}
	}

	best := -1
	bestPeriod := ""
	for i, s := range eligible {
		p, targeted := lastTargeted[s.ID]
		if !targeted {
			return s, true
		}
		if best == -1 || p < bestPeriod {
			best, bestPeriod = i, p
		}
	}
	return eligible[best], true
}

// BuildPlan assigns one representative per group to an eligible day of period.
// groups must be sorted by id (GroupSubjects does this); the same input always
// yields the same plan.
func BuildPlan(groups []Group, period string, blackout []time.Weekday, history map[string][]*Assignment, lookback int, loc *time.Location) (*Plan, error) {
	start, err := ParsePeriod(period, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid period %q: %w", period, err)
	}
	days := EligibleDays(start.Year(), start.Month(), blackout, start.Location())
	if len(days) == 0 {
		return nil, fmt.Errorf("%s: %w", period, ErrNoEligibleDays)
	}

	plan := &Plan{Period: period, EligibleDays: days}
	type target struct {
		group   Group
		subject Subject
	}
	targets := make([]target, 0, len(groups))
	for _, g := range groups {
		s, ok := SelectRepresentative(g, history[g.ID], lookback)
		if !ok {
			plan.Warnings = append(plan.Warnings, PlanWarning{GroupID: g.ID, GroupName: g.Name, Reason: "no eligible adult"})
			continue
		}
		targets = append(targets, target{group: g, subject: s})
	}

	for i, t := range targets {
		day := days[SpreadIndex(i, len(targets), len(days))]
		plan.Assignments = append(plan.Assignments, &Assignment{
			SubjectID:    t.subject.ID,
			SubjectName:  t.subject.Name,
			GroupID:      t.group.ID,
			GroupName:    t.group.Name,
			Phone:        t.subject.Phone,
			Email:        t.subject.Email,
			Period:       period,
			AssignedDate: day,
			State:        StatePending,
		})
	}
	return plan, nil
}

func isBlackout(blackout []time.Weekday, wd time.Weekday) bool {
	for _, b := range blackout {
		if b == wd {
			return true
		}
	}
	return false
}
