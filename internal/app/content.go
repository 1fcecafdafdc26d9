package app

import (
	"context"
	"time"

	"assistant_scheduler/internal/domain/followup"
	"assistant_scheduler/internal/domain/schedule"
)

// ReviewData is the value every content template is executed against.
type ReviewData struct {
	Entry          string
	Description    string
	Date           string // "Monday, February 2"
	Week           int    // ISO week number
	Month          string // "February 2026"
	Period         string // "2026-02"
	Followups      []FollowupView
	Next           *FollowupView
	Theme          followup.Theme
	ThemeQuestions []string
	Summary        followup.Summary
}

// FollowupView is the template-facing projection of an assignment.
type FollowupView struct {
	ID          int64
	Name        string
	Household   string
	Phone       string
	Email       string
	Assigned    string
	Overdue     bool
	DaysOverdue int
}

// Content is the rendered input of one materialization.
type Content struct {
	Data ReviewData
	// Presented are the due assignments shown in the content. They are marked
	// reminded once the event is recorded.
	Presented []*followup.Assignment
	Warnings  []string
}

// themeQuestionCount is how many theme questions accompany the follow-up section.
const themeQuestionCount = 2

// ContentBuilder gathers the data an entry's template needs.
type ContentBuilder struct {
	followups *FollowupService // nil disables follow-up sections
	planner   *PlannerService  // nil disables on-demand planning
	themes    map[string]followup.Theme
}

func NewContentBuilder(followups *FollowupService, planner *PlannerService, themes map[string]followup.Theme) *ContentBuilder {
	return &ContentBuilder{followups: followups, planner: planner, themes: themes}
}

// Build collects template data for e at now. For entries that carry follow-ups
// the current period is planned first if needed; planning is idempotent.
func (b *ContentBuilder) Build(ctx context.Context, e schedule.Entry, now time.Time) (*Content, error) {
	period := followup.PeriodOf(now)
	_, week := now.ISOWeek()
	theme := followup.ThemeFor(b.themes, period)
	c := &Content{Data: ReviewData{
		Entry:          e.Name,
		Description:    e.Description,
		Date:           now.Format("Monday, January 2"),
		Week:           week,
		Month:          now.Format("January 2006"),
		Period:         period,
		Theme:          theme,
		ThemeQuestions: firstN(theme.Questions, themeQuestionCount),
		Summary:        followup.Summary{Period: period},
	}}
	if b.followups == nil {
		return c, nil
	}

	if e.Followups && b.planner != nil {
		plan, err := b.planner.PlanPeriod(ctx, period)
		if err != nil {
			// A missing directory must not block the rest of the review.
			c.Warnings = append(c.Warnings, "follow-up planning skipped: "+err.Error())
		} else {
			for _, w := range plan.Warnings {
				c.Warnings = append(c.Warnings, w.String())
			}
		}
	}

	summary, err := b.followups.Summary(ctx, period)
	if err != nil {
		return nil, err
	}
	c.Data.Summary = summary

	if !e.Followups {
		return c, nil
	}
	today := followup.Day(now)
	due, err := b.followups.Today(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range due {
		c.Data.Followups = append(c.Data.Followups, viewOf(a, today))
	}
	c.Presented = due
	if len(due) == 0 {
		next, err := b.followups.Next(ctx)
		if err != nil {
			return nil, err
		}
		if next != nil {
			v := viewOf(next, today)
			c.Data.Next = &v
		}
	}
	return c, nil
}

func viewOf(a *followup.Assignment, today time.Time) FollowupView {
	overdue := followup.DaysBetween(a.AssignedDate, today)
	v := FollowupView{
		ID:        a.ID,
		Name:      a.SubjectName,
		Household: a.GroupName,
		Phone:     a.Phone,
		Email:     a.Email,
		Assigned:  a.AssignedDate.Format("Mon Jan 2"),
	}
	if overdue > 0 {
		v.Overdue, v.DaysOverdue = true, overdue
	}
	return v
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
