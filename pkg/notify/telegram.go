package notify

import (
	"context"
	"fmt"

	"github.com/arnavshah/alterations-api/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is the part of *tgbotapi.BotAPI the notifier needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a short message to the shop's chat.
type TelegramNotifier struct {
	bot    MessageSender
	chatID int64
}

func NewTelegramNotifier(bot MessageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// DialTelegram connects to the bot API with token.
func DialTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify.DialTelegram: %w", err)
	}
	return NewTelegramNotifier(bot, chatID), nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, event models.JobStatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, messageText(event))); err != nil {
		return fmt.Errorf("notify.TelegramNotifier: %w", err)
	}
	return nil
}

func messageText(event models.JobStatusEvent) string {
	switch event.Status {
	case models.StatusComplete:
		return fmt.Sprintf("Job %s is ready for pickup", event.JobNumber)
	case models.StatusPickedUp:
		return fmt.Sprintf("Job %s was picked up", event.JobNumber)
	default:
		return fmt.Sprintf("Job %s is now %s", event.JobNumber, event.Status)
	}
}
