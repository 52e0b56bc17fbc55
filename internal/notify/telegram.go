package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
)

// TelegramNotifier sends published bundles to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ domsvc.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Send(ctx context.Context, b *models.NewsBundle) error {
	msg := tgbotapi.NewMessage(t.chatID, formatTelegramText(b))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatTelegramText(b *models.NewsBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", b.Article.Title)
	if b.Article.Lead != "" {
		sb.WriteString(b.Article.Lead)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Price: %.2f (%+.1f%%)", b.Event.CurrentPrice, b.Event.ChangePercent)
	return sb.String()
}
