package bot

import (
	"context"
	"fmt"

	"avatar_bot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier tells referrers about new signups and paid bonuses in
// their private chat (chat id = user id).
type TelegramNotifier struct {
	sender Sender
}

func NewTelegramNotifier(sender Sender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

func (n *TelegramNotifier) Notify(ctx context.Context, ev domain.Event) error {
	text := eventText(ev)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(ev.UserID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram notify %s to %d: %w", ev.Kind, ev.UserID, err)
	}
	return nil
}

// eventText returns the chat message for ev, or "" for events that are not
// sent to the chat (balance updates go to the Mini App only).
func eventText(ev domain.Event) string {
	switch ev.Kind {
	case domain.EventReferralSignup:
		return "👤 По вашей реферальной ссылке зарегистрировался новый пользователь!\n" +
			"Бонус придёт, когда он впервые оплатит генерацию."
	case domain.EventReferralBonus:
		return fmt.Sprintf("🎉 Ваш реферал совершил первую покупку!\n"+
			"Начислено <b>+%d ⭐</b>, баланс: <b>%d ⭐</b>", ev.Amount, ev.Balance)
	}
	return ""
}
