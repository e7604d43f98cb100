package telegram

import (
	"context"
	"fmt"

	tg "github.com/go-telegram/bot"
)

// Notifier delivers alert messages to the admin chat. It satisfies the
// analyzer.Notifier contract: fire-and-forget, success/failure only.
type Notifier struct {
	bot    *tg.Bot
	chatID int64
}

// NewNotifier binds a bot to the admin chat id.
func NewNotifier(bot *tg.Bot, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// Send delivers text to the admin chat. Messages are plain text; mint and
// account addresses are base58, so no escaping is needed.
func (n *Notifier) Send(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, &tg.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
