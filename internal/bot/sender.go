package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender adapts the Telegram API to the dispatcher's transport contract.
// All outbound messages use Markdown with link previews disabled.
type Sender struct {
	api *tgbotapi.BotAPI
}

// NewSender wraps an authorized Telegram client.
func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

// SendMessage delivers one text message to a chat.
func (s *Sender) SendMessage(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}

// SendButton delivers a text message with a single inline action button.
func (s *Sender) SendButton(_ context.Context, chatID int64, text, label, callback string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callback)))
	_, err := s.api.Send(msg)
	return err
}
