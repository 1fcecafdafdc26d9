// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assistant_scheduler/internal/domain/delivery"

	"gopkg.in/telebot.v3"
)

var ErrEmptyMessage = errors.New("refusing to send an empty message")

// messageSender is the part of *telebot.Bot the adapter needs.
type messageSender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter delivers interactive artifacts to the owner chat using the
// gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot    messageSender
	chatID int64
}

func NewTelebotAdapter(b *telebot.Bot, chatID int64) *TelebotAdapter {
	return &TelebotAdapter{bot: b, chatID: chatID}
}

// Send implements delivery.Sender. Actions become inline buttons, one per row.
func (tba *TelebotAdapter) Send(ctx context.Context, a delivery.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := strings.TrimSpace(a.Body)
	if text == "" {
		text = strings.TrimSpace(a.Title)
	}
	if text == "" {
		return ErrEmptyMessage
	}

	options := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}
	if len(a.Actions) > 0 {
		markup := &telebot.ReplyMarkup{}
		rows := make([]telebot.Row, 0, len(a.Actions))
		for _, act := range a.Actions {
			rows = append(rows, markup.Row(markup.Data(act.Label, "", act.Data)))
		}
		markup.Inline(rows...)
		options.ReplyMarkup = markup
	}

	if err := tba.SendMessage(tba.chatID, text, options); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.Chat{ID: recipientChatID}
	_, err := tba.bot.Send(recipient, text, options)
	return err
}
