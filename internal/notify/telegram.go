// Package notify delivers tracker notifications to chats.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/Domenick1991/flightbot/internal/kafka"
	"github.com/Domenick1991/flightbot/internal/service/tracker"
)

const ParseModeMarkdown = "markdown"

// Sender is the part of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramSink struct {
	bot Sender
}

func NewTelegramSink(bot Sender) *TelegramSink {
	return &TelegramSink{bot: bot}
}

func (s *TelegramSink) Send(ctx context.Context, chatID int64, text string) error {
	return s.send(chatID, text, ParseModeMarkdown)
}

// Deliver sends a queued notification.
func (s *TelegramSink) Deliver(ctx context.Context, event kafka.NotificationEvent) error {
	return s.send(event.ChatID, event.Text, event.ParseMode)
}

func (s *TelegramSink) send(chatID int64, text, parseMode string) error {
	message := tgbotapi.MessageConfig{
		BaseChat: tgbotapi.BaseChat{
			ChatID: chatID,
		},
		Text:      text,
		ParseMode: parseMode,
	}
	if _, err := s.bot.Send(message); err != nil {
		return fmt.Errorf("failed to send to chat %d: %w", chatID, err)
	}
	return nil
}

var _ tracker.Sink = (*TelegramSink)(nil)
