// internal/app/materializer.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/dedup"
	"assistant_scheduler/internal/domain/delivery"
	"assistant_scheduler/internal/domain/schedule"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// Outcome is what happened to one due entry.
type Outcome string

const (
	OutcomeMaterialized   Outcome = "materialized"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeFailed         Outcome = "failed"
)

// Result describes one materialization attempt.
type Result struct {
	Entry       string
	ReferenceID string
	Outcome     Outcome
	Reason      string // why it was skipped or failed
	Warnings    []string
}

// RetryPolicy bounds delivery attempts.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// DefaultRetryPolicy tries twice with a short pause in between.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 2, InitialInterval: 500 * time.Millisecond}

// Recorder receives run counters. The metrics package implements it.
type Recorder interface {
	EntryOutcome(entry, outcome string)
	DeliveryAttempt(channel string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) EntryOutcome(string, string)  {}
func (nopRecorder) DeliveryAttempt(string, bool) {}

// Materializer turns a due entry into at most one delivered artifact per period.
// The event is recorded before delivery: a crash after recording suppresses
// the artifact for the period rather than duplicating it.
type Materializer struct {
	store     dedup.Store
	content   *ContentBuilder
	renderer  *Renderer
	sender    delivery.Sender
	followups *FollowupService // nil when follow-ups are disabled
	retry     RetryPolicy
	recorder  Recorder
	logger    *logrus.Entry
}

func NewMaterializer(
	store dedup.Store,
	content *ContentBuilder,
	renderer *Renderer,
	sender delivery.Sender,
	followups *FollowupService,
	retry RetryPolicy,
	recorder Recorder,
	logger *logrus.Entry,
) *Materializer {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Materializer{
		store:     store,
		content:   content,
		renderer:  renderer,
		sender:    sender,
		followups: followups,
		retry:     retry,
		recorder:  recorder,
		logger:    logger,
	}
}

// Materialize runs the check, record and deliver sequence for e at now.
// A non-nil error means storage or rendering failed; delivery failures are
// reported in the Result only.
func (m *Materializer) Materialize(ctx context.Context, e schedule.Entry, now time.Time) (Result, error) {
	ref := schedule.ReferenceID(e.Name, schedule.PeriodKey(e.Period, now))
	res := Result{Entry: e.Name, ReferenceID: ref}
	logCtx := m.logger.WithFields(logrus.Fields{"entry": e.Name, "reference_id": ref})

	exists, err := m.store.Exists(ctx, ref)
	if err != nil {
		return m.fail(res, logCtx, err)
	}
	if exists {
		logCtx.Debug("Already materialized for this period")
		return m.skip(res, "already materialized"), nil
	}

	content, err := m.content.Build(ctx, e, now)
	if err != nil {
		return m.fail(res, logCtx, err)
	}
	res.Warnings = content.Warnings
	body, err := m.renderer.Render(e.Template, content.Data)
	if err != nil {
		return m.fail(res, logCtx, err)
	}

	recorded, err := m.store.TryRecord(ctx, &dedup.Event{
		ReferenceID: ref,
		EntryName:   e.Name,
		PeriodKey:   schedule.PeriodKey(e.Period, now),
		CreatedAt:   now,
	})
	if err != nil {
		return m.fail(res, logCtx, err)
	}
	if !recorded {
		logCtx.Info("Another run recorded this period first")
		return m.skip(res, "recorded concurrently"), nil
	}

	if m.followups != nil && len(content.Presented) > 0 {
		if err := m.followups.MarkReminded(ctx, content.Presented, now); err != nil {
			logCtx.WithError(err).Warn("Failed to mark follow-ups reminded")
			res.Warnings = append(res.Warnings, err.Error())
		}
	}

	artifact := buildArtifact(e, body, content, now, ref)
	if err := m.deliver(ctx, artifact, logCtx); err != nil {
		logCtx.WithError(err).Error("Delivery failed; the period stays recorded")
		res.Outcome, res.Reason = OutcomeDeliveryFailed, err.Error()
		m.recorder.EntryOutcome(e.Name, string(res.Outcome))
		return res, nil
	}

	if err := m.store.MarkDelivered(ctx, ref, time.Now()); err != nil {
		logCtx.WithError(err).Warn("Failed to mark event delivered")
		res.Warnings = append(res.Warnings, err.Error())
	}
	logCtx.WithField("channel", e.Channel).Info("Entry materialized")
	res.Outcome = OutcomeMaterialized
	m.recorder.EntryOutcome(e.Name, string(res.Outcome))
	return res, nil
}

func (m *Materializer) deliver(ctx context.Context, a delivery.Artifact, logCtx *logrus.Entry) error {
	b := backoff.NewExponentialBackOff()
	if m.retry.InitialInterval > 0 {
		b.InitialInterval = m.retry.InitialInterval
	}
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := m.sender.Send(ctx, a)
		m.recorder.DeliveryAttempt(string(a.Channel), err == nil)
		if err == nil {
			return struct{}{}, nil
		}
		var unroutable *delivery.UnroutableError
		if errors.As(err, &unroutable) {
			return struct{}{}, backoff.Permanent(err)
		}
		logCtx.WithError(err).WithField("attempt", attempt).Warn("Delivery attempt failed")
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(m.retry.MaxAttempts)))
	if err != nil {
		return fmt.Errorf("delivery over %s failed after %d attempt(s): %w", a.Channel, attempt, err)
	}
	return nil
}

func (m *Materializer) skip(res Result, reason string) Result {
	res.Outcome, res.Reason = OutcomeSkipped, reason
	m.recorder.EntryOutcome(res.Entry, string(res.Outcome))
	return res
}

func (m *Materializer) fail(res Result, logCtx *logrus.Entry, err error) (Result, error) {
	logCtx.WithError(err).Error("Materialization failed")
	res.Outcome, res.Reason = OutcomeFailed, err.Error()
	m.recorder.EntryOutcome(res.Entry, string(res.Outcome))
	return res, err
}

// buildArtifact shapes the rendered body for the entry's channel. The
// simple-trigger channel only understands a title and a note, so the first
// line of the body becomes the title.
func buildArtifact(e schedule.Entry, body string, content *Content, now time.Time, ref string) delivery.Artifact {
	a := delivery.Artifact{Channel: e.Channel, Body: body, Reference: ref}
	switch e.Channel {
	case schedule.ChannelSimpleTrigger:
		title, note, _ := strings.Cut(body, "\n")
		a.Title = strings.TrimSpace(title)
		a.Body = strings.TrimSpace(note)
		a.Due = now
	default:
		a.Title = e.Description
		for _, f := range content.Data.Followups {
			a.Actions = append(a.Actions, delivery.Action{
				Label: "✅ " + f.Name,
				Data:  delivery.CompleteFollowupAction(f.ID),
			})
		}
	}
	return a
}
