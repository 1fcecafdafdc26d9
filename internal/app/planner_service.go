// internal/app/planner_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"assistant_scheduler/internal/domain/followup"

	"github.com/sirupsen/logrus"
)

// PlannerService turns the directory into persisted follow-up assignments for a period.
type PlannerService struct {
	directory followup.Directory
	repo      followup.Repository
	blackout  []time.Weekday
	lookback  int
	loc       *time.Location
	logger    *logrus.Entry
}

func NewPlannerService(
	directory followup.Directory,
	repo followup.Repository,
	blackout []time.Weekday,
	lookback int, // periods of history consulted for rotation
	loc *time.Location,
	logger *logrus.Entry,
) *PlannerService {
	if loc == nil {
		loc = time.Local
	}
	return &PlannerService{
		directory: directory,
		repo:      repo,
		blackout:  blackout,
		lookback:  lookback,
		loc:       loc,
		logger:    logger,
	}
}

// PlanPeriod builds the plan for period and persists it insert-if-absent per
// group. Existing assignments are never moved: the returned plan holds the
// stored row for every group, so re-running reports the same plan.
func (s *PlannerService) PlanPeriod(ctx context.Context, period string) (*followup.Plan, error) {
	logCtx := s.logger.WithField("period", period)

	subjects, err := s.directory.ListSubjects(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list subjects from directory")
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	groups := followup.GroupSubjects(subjects)
	logCtx.WithField("groups", len(groups)).Debug("Directory loaded")

	history, err := s.history(ctx, groups, period)
	if err != nil {
		return nil, err
	}

	plan, err := followup.BuildPlan(groups, period, s.blackout, history, s.lookback, s.loc)
	if err != nil {
		return nil, err
	}

	created := 0
	for i, a := range plan.Assignments {
		inserted, err := s.repo.CreateIfAbsent(ctx, a)
		if err != nil {
			logCtx.WithError(err).WithField("group_id", a.GroupID).Error("Failed to persist follow-up assignment")
			return nil, fmt.Errorf("failed to persist assignment for group %s: %w", a.GroupID, err)
		}
		if inserted {
			created++
			continue
		}
		existing, err := s.repo.GetByGroupAndPeriod(ctx, a.GroupID, period)
		if err != nil {
			return nil, fmt.Errorf("failed to load assignment for group %s: %w", a.GroupID, err)
		}
		plan.Assignments[i] = existing
	}

	for _, w := range plan.Warnings {
		logCtx.WithField("group_id", w.GroupID).Warn(w.Reason)
	}
	logCtx.WithFields(logrus.Fields{
		"assignments": len(plan.Assignments),
		"created":     created,
		"warnings":    len(plan.Warnings),
	}).Info("Follow-up plan ready")
	return plan, nil
}

// history collects each group's assignments from the lookback window
// preceding period.
func (s *PlannerService) history(ctx context.Context, groups []followup.Group, period string) (map[string][]*followup.Assignment, error) {
	history := make(map[string][]*followup.Assignment, len(groups))
	if s.lookback <= 0 {
		return history, nil
	}
	start, err := followup.ParsePeriod(period, s.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid period %q: %w", period, err)
	}
	from := followup.PeriodOf(start.AddDate(0, -s.lookback, 0))
	for _, g := range groups {
		rows, err := s.repo.ListByGroupSince(ctx, g.ID, from)
		if err != nil {
			return nil, fmt.Errorf("failed to load history for group %s: %w", g.ID, err)
		}
		for _, a := range rows {
			if a.Period < period {
				history[g.ID] = append(history[g.ID], a)
			}
		}
	}
	return history, nil
}
