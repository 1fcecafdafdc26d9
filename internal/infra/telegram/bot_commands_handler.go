// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"assistant_scheduler/internal/domain/followup"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// FollowupCommands is the follow-up surface the bot exposes.
type FollowupCommands interface {
	Today(ctx context.Context) ([]*followup.Assignment, error)
	Next(ctx context.Context) (*followup.Assignment, error)
	Complete(ctx context.Context, ref, notes string) (*followup.Assignment, bool, error)
	CompleteByID(ctx context.Context, id int64, notes string) (*followup.Assignment, bool, error)
	Summary(ctx context.Context, period string) (followup.Summary, error)
}

const helpText = "Available commands:\n\n" +
	"`/today` - follow-ups due today\n" +
	"`/next` - the next open follow-up\n" +
	"`/done <name|id> [notes]` - mark a follow-up completed\n" +
	"`/summary [YYYY-MM]` - completion progress for the month\n" +
	"`/help` - show this message"

// RegisterBotCommands wires the follow-up commands. Every handler is
// restricted to the owner chat; other senders get a refusal.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	followups FollowupCommands,
	ownerChatID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	commandLogger := baseLogger.WithField("handler_group", "commands")
	owner := ownerOnly(ownerChatID, commandLogger)

	b.Handle("/start", func(c telebot.Context) error {
		commandLogger.WithField("command", "/start").Info("Processing /start command")
		return c.Send("Hi! I'll send your reviews and shepherding follow-ups here.\n\n"+helpText, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	}, owner)

	b.Handle("/help", func(c telebot.Context) error {
		return c.Send(helpText, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	}, owner)

	b.Handle("/today", func(c telebot.Context) error {
		logCtx := commandLogger.WithField("command", "/today")
		reply, err := todayReply(ctx, followups)
		if err != nil {
			logCtx.WithError(err).Error("Failed to load today's follow-ups")
			return c.Send("Could not load today's follow-ups. Please try again later.")
		}
		return c.Send(reply)
	}, owner)

	b.Handle("/next", func(c telebot.Context) error {
		logCtx := commandLogger.WithField("command", "/next")
		reply, err := nextReply(ctx, followups)
		if err != nil {
			logCtx.WithError(err).Error("Failed to load next follow-up")
			return c.Send("Could not load the next follow-up. Please try again later.")
		}
		return c.Send(reply)
	}, owner)

	RegisterFollowupHandlers(ctx, b, followups, commandLogger, owner)
}

// ownerOnly drops updates from anyone but the configured chat.
func ownerOnly(ownerChatID int64, logger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if !isOwner(c.Chat(), c.Sender(), ownerChatID) {
				fields := logrus.Fields{}
				if c.Sender() != nil {
					fields["sender_id"] = c.Sender().ID
				}
				logger.WithFields(fields).Warn("Unauthorized access attempt")
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: "Not allowed."})
				}
				return c.Send("Sorry, this bot only answers its owner.")
			}
			return next(c)
		}
	}
}

func isOwner(chat *telebot.Chat, sender *telebot.User, ownerChatID int64) bool {
	if ownerChatID == 0 {
		return false
	}
	if chat != nil && chat.ID == ownerChatID {
		return true
	}
	return sender != nil && sender.ID == ownerChatID
}

func todayReply(ctx context.Context, followups FollowupCommands) (string, error) {
	due, err := followups.Today(ctx)
	if err != nil {
		return "", err
	}
	if len(due) == 0 {
		return "No follow-ups due today.", nil
	}
	var b strings.Builder
	b.WriteString("Follow-ups due today:\n")
	for _, a := range due {
		b.WriteString("• " + describe(a) + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func nextReply(ctx context.Context, followups FollowupCommands) (string, error) {
	a, err := followups.Next(ctx)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "All follow-ups are completed. 🎉", nil
	}
	return "Next follow-up: " + describe(a), nil
}

func describe(a *followup.Assignment) string {
	s := fmt.Sprintf("%s (%s) #%d, %s", a.SubjectName, a.GroupName, a.ID, a.AssignedDate.Format("Mon Jan 2"))
	if a.Phone != "" {
		s += " 📞 " + a.Phone
	}
	if a.State == followup.StateReminded && a.LastReminderDate.Valid {
		s += fmt.Sprintf(" (last reminded %s)", a.LastReminderDate.Time.Format(time.DateOnly))
	}
	return s
}
