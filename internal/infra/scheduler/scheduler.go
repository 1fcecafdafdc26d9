package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"assistant_scheduler/internal/app"
	"assistant_scheduler/internal/domain/followup"
	"assistant_scheduler/internal/domain/schedule"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// EntryRunner materializes one named entry; *app.Runner implements it.
type EntryRunner interface {
	RunEntry(ctx context.Context, name string) (*app.RunSummary, error)
}

// PeriodPlanner plans follow-ups for a period; *app.PlannerService implements it.
type PeriodPlanner interface {
	PlanPeriod(ctx context.Context, period string) (*followup.Plan, error)
}

const jobTimeout = 5 * time.Minute

// ReviewScheduler fires every table entry at its time of day and plans the
// month's follow-ups on the configured spec.
type ReviewScheduler struct {
	cronEngine      *cron.Cron
	runner          EntryRunner
	planner         PeriodPlanner // optional
	table           schedule.Table
	location        *time.Location
	monthlyPlanSpec string
	logger          *logrus.Entry
}

func NewReviewScheduler(
	runner EntryRunner,
	planner PeriodPlanner,
	table schedule.Table,
	location *time.Location,
	monthlyPlanSpec string, // e.g., "0 5 1 * *" (05:00 on the 1st)
	logger *logrus.Entry,
) *ReviewScheduler {
	if location == nil {
		location = time.Local
	}
	return &ReviewScheduler{
		cronEngine:      cron.New(cron.WithLocation(location)),
		runner:          runner,
		planner:         planner,
		table:           table,
		location:        location,
		monthlyPlanSpec: monthlyPlanSpec,
		logger:          logger,
	}
}

// CronSpec renders the entry's trigger as a standard five-field cron spec.
// Week-of-month rules are not expressible in cron; they fire on every listed
// weekday and the runner's day rule filters the rest.
func CronSpec(e schedule.Entry) string {
	days := make([]string, 0, len(e.Recurrence.Days))
	for _, d := range e.Recurrence.Days {
		days = append(days, strconv.Itoa(int(d)))
	}
	dow := "*"
	if len(days) > 0 && len(days) < 7 {
		dow = strings.Join(days, ",")
	}
	return fmt.Sprintf("%d %d * * %s", e.At.Minute, e.At.Hour, dow)
}

// Start registers the jobs and starts the cron engine.
func (s *ReviewScheduler) Start() error {
	s.logger.Info("Starting review scheduler...")

	for _, e := range s.table.Entries {
		name := e.Name
		spec := CronSpec(e)
		if _, err := s.cronEngine.AddFunc(spec, func() { s.runEntry(name) }); err != nil {
			return fmt.Errorf("could not add cron job for entry %s (%s): %w", name, spec, err)
		}
		s.logger.WithFields(logrus.Fields{"entry": name, "spec": spec}).Debug("Entry job registered")
	}

	if s.planner != nil && s.monthlyPlanSpec != "" {
		if _, err := s.cronEngine.AddFunc(s.monthlyPlanSpec, s.planCurrentMonth); err != nil {
			return fmt.Errorf("could not add monthly plan cron job: %w", err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Review scheduler started with jobs.")
	return nil
}

func (s *ReviewScheduler) runEntry(name string) {
	logCtx := s.logger.WithField("entry", name)
	logCtx.Info("Cron job triggered for entry.")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := s.runner.RunEntry(ctx, name)
	if err != nil {
		logCtx.WithError(err).Error("Error during entry run")
	}
	if summary != nil {
		logCtx.WithFields(logrus.Fields{
			"run_id":       summary.RunID,
			"materialized": len(summary.Materialized),
			"failed":       len(summary.Failed),
		}).Info("Entry run finished")
	}
}

func (s *ReviewScheduler) planCurrentMonth() {
	period := followup.PeriodOf(time.Now().In(s.location))
	logCtx := s.logger.WithField("period", period)
	logCtx.Info("Cron job triggered for monthly follow-up planning.")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	plan, err := s.planner.PlanPeriod(ctx, period)
	if err != nil {
		logCtx.WithError(err).Error("Error during monthly planning")
		return
	}
	logCtx.WithField("assignments", len(plan.Assignments)).Info("Monthly planning finished")
}

// Stop stops the engine and waits for running jobs to finish.
func (s *ReviewScheduler) Stop() {
	s.logger.Info("Stopping review scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Review scheduler gracefully stopped.")
}
