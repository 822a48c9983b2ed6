package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendTimeout bounds every Bot API round trip. A hung send must never hold
// up the sweep for longer than an alert interval.
const sendTimeout = 10 * time.Second

// TelegramNotifier forwards alerts to an incident command chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates against the Bot API. An unreachable or
// misconfigured bot is reported here so serve can warn and continue without
// the channel.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	client := &http.Client{Timeout: sendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	msg := tgbotapi.NewMessage(t.chatID, "🚨 "+n.message())
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}
