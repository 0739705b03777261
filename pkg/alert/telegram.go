// Package alert sends operational alerts for settlement events to a
// Telegram channel. Delivery is best effort: a nil or failing alerter
// never affects the caller.
package alert

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram builds the alerter, or returns nil when no token is
// configured. A nil *Telegram is safe to call.
func NewTelegram(token string, chatID int64) *Telegram {
	if token == "" || chatID == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		zap.L().Warn("telegram alerts disabled", zap.Error(err))
		return nil
	}
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Send(text string) {
	if t == nil || t.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		zap.L().Warn("telegram alert send failed", zap.Error(err))
	}
}
