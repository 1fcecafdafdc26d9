package delivery

import (
	"context"
	"strconv"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/schedule"
)

// Artifact is a rendered notification ready for a channel.
type Artifact struct {
	Channel   schedule.Channel
	Title     string
	Body      string
	Due       time.Time // simple-trigger reminders only
	Reference string    // dedup reference id, carried for traceability
	Actions   []Action  // interactive channel only
}

// Action is a one-tap reply attached to an interactive artifact.
type Action struct {
	Label string
	Data  string
}

const completeFollowupPrefix = "fu_done_"

// CompleteFollowupAction is the callback payload that completes assignment id.
func CompleteFollowupAction(id int64) string {
	return completeFollowupPrefix + strconv.FormatInt(id, 10)
}

// ParseCompleteFollowupAction extracts the assignment id from a callback payload.
func ParseCompleteFollowupAction(data string) (int64, bool) {
	raw, ok := strings.CutPrefix(data, completeFollowupPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Sender delivers artifacts over one channel. Implementations are treated as
// fire-and-forget: a nil error means the channel accepted the artifact.
type Sender interface {
	Send(ctx context.Context, a Artifact) error
}

// Router dispatches an artifact to the sender registered for its channel.
type Router map[schedule.Channel]Sender

func (r Router) Send(ctx context.Context, a Artifact) error {
	s, ok := r[a.Channel]
	if !ok || s == nil {
		return &UnroutableError{Channel: a.Channel}
	}
	return s.Send(ctx, a)
}

// UnroutableError is returned when no sender is configured for a channel.
type UnroutableError struct {
	Channel schedule.Channel
}

func (e *UnroutableError) Error() string {
	return "no sender configured for channel " + string(e.Channel)
}
