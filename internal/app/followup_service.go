// internal/app/followup_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/followup"
	"assistant_scheduler/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

var (
	ErrFollowupNotFound  = errors.New("no matching follow-up in the current period")
	ErrFollowupAmbiguous = errors.New("more than one follow-up matches")
)

// FollowupService answers what needs attention today and records progress.
// It always looks at the current and the previous period so an assignment
// late in one month can still re-surface early in the next.
type FollowupService struct {
	repo      followup.Repository
	clock     schedule.Clock
	threshold int
	logger    *logrus.Entry
}

func NewFollowupService(repo followup.Repository, clock schedule.Clock, threshold int, logger *logrus.Entry) *FollowupService {
	if threshold <= 0 {
		threshold = followup.DefaultResurfaceThreshold
	}
	return &FollowupService{repo: repo, clock: clock, threshold: threshold, logger: logger}
}

// Today returns the assignments due today, first presentations before re-surfaced ones.
func (s *FollowupService) Today(ctx context.Context) ([]*followup.Assignment, error) {
	now := s.clock.Now()
	active, err := s.active(ctx, now)
	if err != nil {
		return nil, err
	}
	return followup.DueToday(active, followup.Day(now), s.threshold), nil
}

// Next returns the next incomplete assignment to surface, or nil when every
// assignment of the active periods is completed.
func (s *FollowupService) Next(ctx context.Context) (*followup.Assignment, error) {
	now := s.clock.Now()
	active, err := s.active(ctx, now)
	if err != nil {
		return nil, err
	}
	return followup.Next(active, followup.Day(now)), nil
}

// Complete marks the assignment identified by ref completed. ref is either a
// numeric assignment id or a subject or household name (case-insensitive).
// It reports false when the assignment was already completed.
func (s *FollowupService) Complete(ctx context.Context, ref, notes string) (*followup.Assignment, bool, error) {
	a, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	return s.complete(ctx, a, notes)
}

// CompleteByID is Complete for a known assignment id.
func (s *FollowupService) CompleteByID(ctx context.Context, id int64, notes string) (*followup.Assignment, bool, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return s.complete(ctx, a, notes)
}

func (s *FollowupService) complete(ctx context.Context, a *followup.Assignment, notes string) (*followup.Assignment, bool, error) {
	now := s.clock.Now()
	changed, err := s.repo.MarkCompleted(ctx, a.ID, now, notes)
	if err != nil {
		return nil, false, fmt.Errorf("failed to complete follow-up %d: %w", a.ID, err)
	}
	if changed {
		a.MarkCompleted(now, notes)
	}
	s.logger.WithFields(logrus.Fields{
		"assignment_id": a.ID,
		"group_id":      a.GroupID,
		"changed":       changed,
	}).Info("Follow-up completed")
	return a, changed, nil
}

// MarkReminded records that the assignments were presented on day.
// Completed assignments are left untouched.
func (s *FollowupService) MarkReminded(ctx context.Context, assignments []*followup.Assignment, day time.Time) error {
	var errs []error
	for _, a := range assignments {
		changed, err := s.repo.MarkReminded(ctx, a.ID, followup.Day(day))
		if err != nil {
			errs = append(errs, fmt.Errorf("assignment %d: %w", a.ID, err))
			continue
		}
		if changed {
			a.MarkReminded(day)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to mark follow-ups reminded: %w", errors.Join(errs...))
	}
	return nil
}

// Summary reports completion progress of period; an empty period means the current one.
func (s *FollowupService) Summary(ctx context.Context, period string) (followup.Summary, error) {
	if period == "" {
		period = followup.PeriodOf(s.clock.Now())
	}
	rows, err := s.repo.ListByPeriods(ctx, period)
	if err != nil {
		return followup.Summary{}, fmt.Errorf("failed to load follow-ups for %s: %w", period, err)
	}
	return followup.Summarize(period, rows), nil
}

func (s *FollowupService) active(ctx context.Context, now time.Time) ([]*followup.Assignment, error) {
	current := followup.PeriodOf(now)
	previous, err := followup.PreviousPeriod(current)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByPeriods(ctx, current, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to load active follow-ups: %w", err)
	}
	return rows, nil
}

func (s *FollowupService) resolve(ctx context.Context, ref string) (*followup.Assignment, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrFollowupNotFound
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.repo.GetByID(ctx, id)
	}

	active, err := s.active(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	var matches []*followup.Assignment
	for _, a := range active {
		if strings.EqualFold(a.SubjectName, ref) || strings.EqualFold(a.GroupName, ref) {
			matches = append(matches, a)
		}
	}
	if len(matches) > 1 {
		// Prefer the single incomplete match, if there is one.
		var open []*followup.Assignment
		for _, a := range matches {
			if !a.Completed() {
				open = append(open, a)
			}
		}
		if len(open) == 1 {
			return open[0], nil
		}
		return nil, fmt.Errorf("%w: %q", ErrFollowupAmbiguous, ref)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrFollowupNotFound, ref)
	}
	return matches[0], nil
}
