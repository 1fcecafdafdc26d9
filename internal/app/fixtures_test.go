package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"assistant_scheduler/internal/domain/delivery"
	"assistant_scheduler/internal/domain/followup"
	"assistant_scheduler/internal/domain/schedule"
	"assistant_scheduler/internal/infra/config"
	"assistant_scheduler/internal/infra/database"
)

var errChannelDown = errors.New("channel unavailable")

// recordingSender accepts artifacts after failing the first `failures` calls.
type recordingSender struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error // returned on every call when set
	sent     []delivery.Artifact
}

func (s *recordingSender) Send(_ context.Context, a delivery.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.failures > 0 {
		s.failures--
		return errChannelDown
	}
	s.sent = append(s.sent, a)
	return nil
}

func (s *recordingSender) Sent() []delivery.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery.Artifact(nil), s.sent...)
}

func (s *recordingSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type staticDirectory []followup.Subject

func (d staticDirectory) ListSubjects(context.Context) ([]followup.Subject, error) {
	return d, nil
}

type failingDirectory struct{}

func (failingDirectory) ListSubjects(context.Context) ([]followup.Subject, error) {
	return nil, errors.New("directory file not found")
}

func households() staticDirectory {
	return staticDirectory{
		{ID: "p1", Name: "Ann Anderson", GroupID: "h1", GroupName: "Anderson", Adult: true, Phone: "555-0101"},
		{ID: "p1c", Name: "Andy Anderson", GroupID: "h1", GroupName: "Anderson"},
		{ID: "p2", Name: "Bob Brown", GroupID: "h2", GroupName: "Brown", Adult: true, Email: "bob@example.com"},
		{ID: "p3", Name: "Cara Clark", GroupID: "h3", GroupName: "Clark", Adult: true},
	}
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// harness wires the real SQLite stores and the bundled schedule to fake
// delivery and directory collaborators.
type harness struct {
	db          *sql.DB
	cfg         *config.ScheduleConfig
	events      *database.EventRepository
	assignments *database.AssignmentRepository
	sender      *recordingSender
	directory   followup.Directory
	retry       RetryPolicy
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := config.LoadSchedule(filepath.Join("..", "..", "config", "schedule.yaml"))
	require.NoError(t, err)
	db, err := database.Open(context.Background(), database.DriverSQLite, filepath.Join(t.TempDir(), "assistant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &harness{
		db:          db,
		cfg:         cfg,
		events:      database.NewEventRepository(db),
		assignments: database.NewAssignmentRepository(db, cfg.Location),
		sender:      &recordingSender{},
		directory:   households(),
		retry:       RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond},
	}
}

func (h *harness) at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, h.cfg.Location)
}

func (h *harness) followups(now time.Time) *FollowupService {
	return NewFollowupService(h.assignments, schedule.FixedClock{T: now}, followup.DefaultResurfaceThreshold, discardLogger())
}

func (h *harness) planner() *PlannerService {
	return NewPlannerService(h.directory, h.assignments, h.cfg.Blackout, 1, h.cfg.Location, discardLogger())
}

func (h *harness) materializer(t *testing.T, now time.Time) *Materializer {
	t.Helper()
	renderer, err := NewRenderer(h.cfg.Templates)
	require.NoError(t, err)
	fs := h.followups(now)
	content := NewContentBuilder(fs, h.planner(), h.cfg.Themes)
	return NewMaterializer(h.events, content, renderer, h.sender, fs, h.retry, nil, discardLogger())
}

func (h *harness) runner(t *testing.T, now time.Time) *Runner {
	t.Helper()
	return NewRunner(h.cfg.Table, h.cfg.Tolerance, schedule.FixedClock{T: now}, h.materializer(t, now), discardLogger())
}
