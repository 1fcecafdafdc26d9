// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrUnknownEntry = errors.New("unknown schedule entry")

// RunSummary is the human-readable account of one evaluation.
type RunSummary struct {
	RunID        string
	At           time.Time
	Evaluated    int
	Materialized []string
	Skipped      []string
	Failed       []string
	Warnings     []string
}

func (s *RunSummary) add(r Result) {
	switch r.Outcome {
	case OutcomeMaterialized:
		s.Materialized = append(s.Materialized, r.Entry)
	case OutcomeSkipped:
		s.Skipped = append(s.Skipped, fmt.Sprintf("%s (%s)", r.Entry, r.Reason))
	default:
		s.Failed = append(s.Failed, fmt.Sprintf("%s (%s)", r.Entry, r.Reason))
	}
	for _, w := range r.Warnings {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s: %s", r.Entry, w))
	}
}

func (s *RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s at %s\n", s.RunID, s.At.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "  evaluated:    %d\n", s.Evaluated)
	fmt.Fprintf(&b, "  materialized: %d%s\n", len(s.Materialized), list(s.Materialized))
	fmt.Fprintf(&b, "  skipped:      %d%s\n", len(s.Skipped), list(s.Skipped))
	fmt.Fprintf(&b, "  failed:       %d%s\n", len(s.Failed), list(s.Failed))
	if len(s.Warnings) > 0 {
		b.WriteString("  warnings:\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "    - %s\n", w)
		}
	}
	return b.String()
}

func list(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return " [" + strings.Join(items, ", ") + "]"
}

// Runner evaluates the scheduling table against the clock and materializes
// whatever is due.
type Runner struct {
	table        schedule.Table
	tolerance    time.Duration
	clock        schedule.Clock
	materializer *Materializer
	logger       *logrus.Entry
}

func NewRunner(table schedule.Table, tolerance time.Duration, clock schedule.Clock, materializer *Materializer, logger *logrus.Entry) *Runner {
	return &Runner{
		table:        table,
		tolerance:    tolerance,
		clock:        clock,
		materializer: materializer,
		logger:       logger,
	}
}

// RunDue materializes every entry due at the current instant. The returned
// error joins storage and rendering failures; delivery failures only appear
// in the summary.
func (r *Runner) RunDue(ctx context.Context) (*RunSummary, error) {
	now := r.clock.Now()
	return r.run(ctx, now, schedule.Due(now, r.table, r.tolerance))
}

// RunEntry materializes the named entry if its day rule matches today. The
// time window is not checked: the caller is an external trigger that already
// fired at the entry's time.
func (r *Runner) RunEntry(ctx context.Context, name string) (*RunSummary, error) {
	e, ok := r.table.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, name)
	}
	now := r.clock.Now()
	if !schedule.MatchesDay(e.Recurrence, now) {
		s := r.newSummary(now)
		s.Evaluated = 1
		s.add(Result{Entry: e.Name, Outcome: OutcomeSkipped, Reason: "not scheduled today"})
		r.logger.WithFields(logrus.Fields{"run_id": s.RunID, "entry": e.Name}).Info("Entry not scheduled today")
		return s, nil
	}
	return r.run(ctx, now, []schedule.Entry{e})
}

func (r *Runner) run(ctx context.Context, now time.Time, due []schedule.Entry) (*RunSummary, error) {
	s := r.newSummary(now)
	logCtx := r.logger.WithField("run_id", s.RunID)
	logCtx.WithField("due", len(due)).Info("Evaluating schedule")

	var errs []error
	for _, e := range due {
		s.Evaluated++
		res, err := r.materializer.Materialize(ctx, e, now)
		s.add(res)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}

	logCtx.WithFields(logrus.Fields{
		"evaluated":    s.Evaluated,
		"materialized": len(s.Materialized),
		"skipped":      len(s.Skipped),
		"failed":       len(s.Failed),
	}).Info("Run complete")
	return s, errors.Join(errs...)
}

func (r *Runner) newSummary(now time.Time) *RunSummary {
	return &RunSummary{RunID: uuid.NewString(), At: now}
}
