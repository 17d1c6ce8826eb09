// Package notify delivers batches of new vacancies to a chat, in order and
// best-effort.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// CallbackShowAll is the callback payload on the "show everything" button;
// the chat layer routes it back into an on-demand full search.
const CallbackShowAll = "show_all_vacancies"

const (
	// maxImmediate caps how many vacancies are sent right away; the rest
	// hide behind the show-all prompt.
	maxImmediate = 3
	messagePause = 500 * time.Millisecond
)

// Sender is the chat transport contract: deliver ordered messages to a
// chat-addressable endpoint, best-effort.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButton(ctx context.Context, chatID int64, text, label, callback string) error
}

// Dispatcher turns a batch of new vacancies into an ordered message
// sequence. Send failures never propagate past this boundary: a failed
// message is logged and the rest of the batch still goes out.
type Dispatcher struct {
	sender Sender
	log    *slog.Logger
	pause  time.Duration
	now    func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPause overrides the delay between consecutive messages.
func WithPause(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.pause = d }
}

// WithClock overrides the time source used for relative-age rendering.
func WithClock(now func() time.Time) Option {
	return func(disp *Dispatcher) { disp.now = now }
}

// NewDispatcher returns a configured Dispatcher.
func NewDispatcher(sender Sender, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		log:    logger.With("component", "notify"),
		pause:  messagePause,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify sends the notification sequence for one user's batch: a summary,
// up to three formatted vacancies in input order, and a show-all prompt when
// the batch was capped.
func (d *Dispatcher) Notify(ctx context.Context, chatID int64, vacancies []model.Vacancy) {
	if len(vacancies) == 0 {
		return
	}

	summary := fmt.Sprintf("🔔 *Найдено %d новых вакансий!*\n\nВот самые свежие из них:", len(vacancies))
	if err := d.sender.SendMessage(ctx, chatID, summary); err != nil {
		d.log.Error("send summary failed", "chat_id", chatID, "err", err)
	}

	shown := len(vacancies)
	if shown > maxImmediate {
		shown = maxImmediate
	}

	now := d.now()
	for i := 0; i < shown; i++ {
		time.Sleep(d.pause)

		text := fmt.Sprintf("*Вакансия %d из %d*\n\n%s", i+1, shown, Format(vacancies[i], now))
		if err := d.sender.SendMessage(ctx, chatID, text); err != nil {
			d.log.Error("send vacancy failed",
				"chat_id", chatID, "vacancy_id", vacancies[i].ID, "err", err)
		}
	}

	if len(vacancies) > maxImmediate {
		time.Sleep(d.pause)

		text := fmt.Sprintf("📊 *Всего найдено %d новых вакансий.*\nНажмите кнопку ниже чтобы увидеть все результаты.",
			len(vacancies))
		if err := d.sender.SendButton(ctx, chatID, text, "🔍 Показать все вакансии", CallbackShowAll); err != nil {
			d.log.Error("send show-all prompt failed", "chat_id", chatID, "err", err)
		}
	}
}
