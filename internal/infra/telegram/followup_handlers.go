// internal/infra/telegram/followup_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assistant_scheduler/internal/app"
	"assistant_scheduler/internal/domain/delivery"
	"assistant_scheduler/internal/domain/followup"
	idb "assistant_scheduler/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterFollowupHandlers wires /done, /summary and the inline completion buttons.
func RegisterFollowupHandlers(ctx context.Context, b *telebot.Bot, followups FollowupCommands, baseLogger *logrus.Entry, owner telebot.MiddlewareFunc) {
	b.Handle("/done", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithField("command", "/done")
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /done <name|id> [notes]")
		}
		ref, notes := splitDoneArgs(args)
		reply, err := doneReply(ctx, followups, ref, notes)
		if err != nil {
			handlerLogger.WithError(err).WithField("ref", ref).Error("Failed to complete follow-up")
		}
		return c.Send(reply)
	}, owner)

	b.Handle("/summary", func(c telebot.Context) error {
		period := ""
		if args := c.Args(); len(args) > 0 {
			period = args[0]
		}
		reply, err := summaryReply(ctx, followups, period)
		if err != nil {
			baseLogger.WithField("command", "/summary").WithError(err).Error("Failed to build summary")
			return c.Send("Could not build the summary. Please try again later.")
		}
		return c.Send(reply)
	}, owner)

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := c.Callback().Data
		id, ok := delivery.ParseCompleteFollowupAction(data)
		if !ok {
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
		}

		a, changed, err := followups.CompleteByID(ctx, id, "")
		if err != nil {
			c.Bot().OnError(fmt.Errorf("error completing follow-up %d: %w", id, err), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong."})
		}
		if !changed {
			return c.Respond(&telebot.CallbackResponse{Text: a.SubjectName + " was already done."})
		}
		baseLogger.WithFields(logrus.Fields{"assignment_id": id, "group_id": a.GroupID}).Info("Follow-up completed from button")
		return c.Respond(&telebot.CallbackResponse{Text: "✅ " + a.SubjectName + " done!"})
	}, owner)
}

// splitDoneArgs separates the reference from free-form notes. A reference may
// span words ("Ann Anderson"); notes follow a "--" separator.
func splitDoneArgs(args []string) (ref, notes string) {
	for i, a := range args {
		if a == "--" {
			return strings.Join(args[:i], " "), strings.Join(args[i+1:], " ")
		}
	}
	return strings.Join(args, " "), ""
}

func doneReply(ctx context.Context, followups FollowupCommands, ref, notes string) (string, error) {
	a, changed, err := followups.Complete(ctx, ref, notes)
	switch {
	case errors.Is(err, app.ErrFollowupNotFound), errors.Is(err, idb.ErrAssignmentNotFound):
		return fmt.Sprintf("No open follow-up matches %q.", ref), nil
	case errors.Is(err, app.ErrFollowupAmbiguous):
		return fmt.Sprintf("More than one follow-up matches %q; use the #id from /today.", ref), nil
	case err != nil:
		return "Could not complete the follow-up. Please try again later.", err
	case !changed:
		return fmt.Sprintf("%s was already marked done.", a.SubjectName), nil
	}
	return fmt.Sprintf("✅ Marked %s (%s) done.", a.SubjectName, a.GroupName), nil
}

func summaryReply(ctx context.Context, followups FollowupCommands, period string) (string, error) {
	s, err := followups.Summary(ctx, period)
	if err != nil {
		return "", err
	}
	if s.Total == 0 {
		return fmt.Sprintf("No follow-ups planned for %s.", s.Period), nil
	}
	return formatSummary(s), nil
}

func formatSummary(s followup.Summary) string {
	return fmt.Sprintf("📊 %s: %d/%d completed (%.0f%%), %d remaining", s.Period, s.Completed, s.Total, s.Rate(), s.Remaining())
}
