package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"assistant_scheduler/internal/app"
	"assistant_scheduler/internal/domain/delivery"
	"assistant_scheduler/internal/domain/followup"
	"assistant_scheduler/internal/domain/schedule"
)

type sentMessage struct {
	to   telebot.Recipient
	what interface{}
	opts []interface{}
}

type fakeBot struct {
	sent []sentMessage
	err  error
}

func (f *fakeBot) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, what: what, opts: opts})
	return &telebot.Message{}, nil
}

func TestTelebotAdapter_SendsToOwnerChat(t *testing.T) {
	bot := &fakeBot{}
	adapter := &TelebotAdapter{bot: bot, chatID: 4242}

	err := adapter.Send(context.Background(), delivery.Artifact{
		Channel: schedule.ChannelInteractive,
		Title:   "Daily review",
		Body:    "📋 *Daily Review*",
		Actions: []delivery.Action{{Label: "✅ Ann", Data: delivery.CompleteFollowupAction(7)}},
	})
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, "4242", bot.sent[0].to.Recipient())
	assert.Equal(t, "📋 *Daily Review*", bot.sent[0].what)

	opts, ok := bot.sent[0].opts[0].(*telebot.SendOptions)
	require.True(t, ok)
	assert.Equal(t, telebot.ModeMarkdown, opts.ParseMode)
	require.NotNil(t, opts.ReplyMarkup)
	require.Len(t, opts.ReplyMarkup.InlineKeyboard, 1)
	assert.Equal(t, "fu_done_7", opts.ReplyMarkup.InlineKeyboard[0][0].Data)
}

func TestTelebotAdapter_Errors(t *testing.T) {
	adapter := &TelebotAdapter{bot: &fakeBot{err: errors.New("telegram: bad gateway (502)")}, chatID: 1}
	err := adapter.Send(context.Background(), delivery.Artifact{Body: "hello"})
	assert.ErrorContains(t, err, "bad gateway")

	err = adapter.Send(context.Background(), delivery.Artifact{Body: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = adapter.Send(ctx, delivery.Artifact{Body: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeFollowups struct {
	due      []*followup.Assignment
	next     *followup.Assignment
	complete func(ref string) (*followup.Assignment, bool, error)
	summary  followup.Summary
	err      error
}

func (f *fakeFollowups) Today(context.Context) ([]*followup.Assignment, error) { return f.due, f.err }
func (f *fakeFollowups) Next(context.Context) (*followup.Assignment, error)    { return f.next, f.err }
func (f *fakeFollowups) Complete(_ context.Context, ref, _ string) (*followup.Assignment, bool, error) {
	return f.complete(ref)
}
func (f *fakeFollowups) CompleteByID(_ context.Context, id int64, _ string) (*followup.Assignment, bool, error) {
	return f.complete(fmt.Sprint(id))
}
func (f *fakeFollowups) Summary(_ context.Context, period string) (followup.Summary, error) {
	s := f.summary
	if period != "" {
		s.Period = period
	}
	return s, f.err
}

func ann() *followup.Assignment {
	return &followup.Assignment{
		ID: 3, SubjectName: "Ann Anderson", GroupName: "Anderson", Phone: "555-0101",
		AssignedDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), State: followup.StatePending,
	}
}

func TestTodayAndNextReplies(t *testing.T) {
	ctx := context.Background()

	reply, err := todayReply(ctx, &fakeFollowups{})
	require.NoError(t, err)
	assert.Equal(t, "No follow-ups due today.", reply)

	reply, err = todayReply(ctx, &fakeFollowups{due: []*followup.Assignment{ann()}})
	require.NoError(t, err)
	assert.Equal(t, "Follow-ups due today:\n• Ann Anderson (Anderson) #3, Mon Feb 2 📞 555-0101", reply)

	reply, err = nextReply(ctx, &fakeFollowups{})
	require.NoError(t, err)
	assert.Contains(t, reply, "All follow-ups are completed")

	_, err = nextReply(ctx, &fakeFollowups{err: errors.New("db down")})
	assert.Error(t, err)
}

func TestDoneReply(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		fn   func(string) (*followup.Assignment, bool, error)
		want string
	}{
		{"completed", func(string) (*followup.Assignment, bool, error) { return ann(), true, nil }, "✅ Marked Ann Anderson (Anderson) done."},
		{"already done", func(string) (*followup.Assignment, bool, error) { return ann(), false, nil }, "Ann Anderson was already marked done."},
		{"not found", func(string) (*followup.Assignment, bool, error) { return nil, false, app.ErrFollowupNotFound }, `No open follow-up matches "ann".`},
		{"ambiguous", func(string) (*followup.Assignment, bool, error) {
			return nil, false, fmt.Errorf("%w: %q", app.ErrFollowupAmbiguous, "ann")
		}, `More than one follow-up matches "ann"; use the #id from /today.`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := doneReply(ctx, &fakeFollowups{complete: tc.fn}, "ann", "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, reply)
		})
	}
}

func TestSplitDoneArgs(t *testing.T) {
	ref, notes := splitDoneArgs([]string{"Ann", "Anderson", "--", "met", "for", "coffee"})
	assert.Equal(t, "Ann Anderson", ref)
	assert.Equal(t, "met for coffee", notes)

	ref, notes = splitDoneArgs([]string{"12"})
	assert.Equal(t, "12", ref)
	assert.Empty(t, notes)
}

func TestSummaryReply(t *testing.T) {
	ctx := context.Background()
	reply, err := summaryReply(ctx, &fakeFollowups{summary: followup.Summary{Period: "2026-02", Total: 4, Completed: 3}}, "")
	require.NoError(t, err)
	assert.Equal(t, "📊 2026-02: 3/4 completed (75%), 1 remaining", reply)

	reply, err = summaryReply(ctx, &fakeFollowups{}, "2026-05")
	require.NoError(t, err)
	assert.Equal(t, "No follow-ups planned for 2026-05.", reply)
}

func TestIsOwner(t *testing.T) {
	assert.True(t, isOwner(&telebot.Chat{ID: 10}, nil, 10))
	assert.True(t, isOwner(nil, &telebot.User{ID: 10}, 10))
	assert.False(t, isOwner(&telebot.Chat{ID: 11}, &telebot.User{ID: 11}, 10))
	assert.False(t, isOwner(&telebot.Chat{ID: 0}, nil, 0))
}
