// Package bot implements the Telegram command surface: main menu, filter
// configuration, on-demand search and the auto-search controls.
//
// It is a transport layer only — vacancy search, normalization and
// scheduling live in their own packages and are injected here.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/BarIlya77/job-search-bot-v2/internal/filter"
	"github.com/BarIlya77/job-search-bot-v2/internal/hh"
	"github.com/BarIlya77/job-search-bot-v2/internal/model"
	"github.com/BarIlya77/job-search-bot-v2/internal/notify"
	"github.com/BarIlya77/job-search-bot-v2/internal/scheduler"
	"github.com/BarIlya77/job-search-bot-v2/internal/store"
)

// defaultSearchText is used for an on-demand search when the user has not
// configured a profession.
const defaultSearchText = "разработчик"

// ValidationError reports a rejected user input with a human-readable
// reason. State is never changed when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// validateInterval enforces the command-layer floor on check intervals.
func validateInterval(minutes int) error {
	if minutes < scheduler.MinIntervalMinutes {
		return &ValidationError{
			Msg: fmt.Sprintf("интервал должен быть не менее %d минут", scheduler.MinIntervalMinutes),
		}
	}
	return nil
}

// History is the slice of the dedup ledger the command layer needs:
// wiping a user's delivery history when their filters are cleared.
type History interface {
	Clear(ctx context.Context, userID int64) error
}

// Bot routes Telegram updates to the underlying services.
type Bot struct {
	api     *tgbotapi.BotAPI
	users   *store.Users
	filters *store.Filters
	engine  *scheduler.Engine
	gateway *hh.Client
	norm    *filter.Normalizer
	history History
	log     *slog.Logger

	state    *inputState
	sessions *sessionStore

	mu              sync.Mutex
	defaultInterval int
}

// New wires up the bot.
func New(
	api *tgbotapi.BotAPI,
	users *store.Users,
	filters *store.Filters,
	engine *scheduler.Engine,
	gateway *hh.Client,
	norm *filter.Normalizer,
	history History,
	defaultInterval int,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		api:             api,
		users:           users,
		filters:         filters,
		engine:          engine,
		gateway:         gateway,
		norm:            norm,
		history:         history,
		log:             logger.With("component", "bot"),
		state:           newInputState(),
		sessions:        newSessionStore(),
		defaultInterval: defaultInterval,
	}
}

// Run polls Telegram for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.MyChatMember != nil:
		b.handleChatMember(ctx, update.MyChatMember)
	}
}

// handleChatMember reacts to the user blocking or unblocking the bot: a
// blocked user is excluded from background checks until they come back.
func (b *Bot) handleChatMember(ctx context.Context, m *tgbotapi.ChatMemberUpdated) {
	user, err := b.users.ByTelegramID(ctx, m.From.ID)
	if err != nil {
		// Never interacted with the bot; nothing to deactivate.
		return
	}

	status := m.NewChatMember.Status
	active := status != "kicked" && status != "left"
	if err := b.users.SetActive(ctx, m.From.ID, active); err != nil {
		b.log.Error("set user active failed", "user_id", user.ID, "err", err)
		return
	}
	b.log.Info("user activity changed", "user_id", user.ID, "active", active, "status", status)
}

// ─── Messages ────────────────────────────────────────────────────────────────

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}

	user, err := b.users.Upsert(ctx, msg.From.ID, msg.From.FirstName, msg.From.UserName)
	if err != nil {
		b.log.Error("upsert user failed", "telegram_id", msg.From.ID, "err", err)
		return
	}

	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.cmdStart(ctx, chatID, user)
		case "help":
			b.cmdHelp(ctx, chatID)
		case "search":
			b.runSearch(ctx, chatID, user.ID)
		case "status":
			b.cmdStatus(ctx, chatID, user.ID)
		case "autosearch":
			b.cmdAutoSearch(ctx, chatID, msg.CommandArguments())
		default:
			b.reply(chatID, "🤖 Неизвестная команда. Используйте /help.")
		}
		return
	}

	// A prompt may be waiting for free-text input.
	if kind := b.state.take(user.ID); kind != awaitingNone {
		b.handleTextInput(ctx, chatID, user.ID, kind, text)
		return
	}

	switch text {
	case btnSearch:
		b.runSearch(ctx, chatID, user.ID)
	case btnFilters:
		b.showFiltersMenu(ctx, chatID, user.ID, 0)
	case btnStatus:
		b.cmdStatus(ctx, chatID, user.ID)
	case btnHelp:
		b.cmdHelp(ctx, chatID)
	default:
		b.replyWithKeyboard(chatID,
			"🤖 Я понимаю только команды из меню.\n\nИспользуйте кнопки ниже для навигации:",
			mainKeyboard())
	}
}

func (b *Bot) cmdStart(ctx context.Context, chatID int64, user *model.User) {
	b.log.Info("user started the bot", "user_id", user.ID, "username", user.Username)

	welcome := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Я — бот для поиска работы на HH.ru.\n"+
			"Используй кнопки ниже для управления:\n\n"+
			"• 🔍 *Поиск вакансий* — найти новые вакансии\n"+
			"• ⚙️ *Фильтры* — настроить параметры поиска\n"+
			"• 📊 *Статус* — текущие настройки\n"+
			"• ❓ *Помощь* — список всех команд",
		user.FirstName)

	b.replyWithKeyboard(chatID, welcome, mainKeyboard())
}

func (b *Bot) cmdHelp(_ context.Context, chatID int64) {
	help := "📋 *Доступные команды:*\n\n" +
		"*/start* - Начать работу с ботом\n" +
		"*/help* - Показать это сообщение\n" +
		"*/search* - Поиск вакансий по фильтрам\n" +
		"*/status* - Статус автопоиска\n\n" +
		"⏰ *Автопоиск:*\n" +
		"*/autosearch start* - Запустить автопоиск\n" +
		"*/autosearch stop* - Остановить автопоиск\n" +
		"*/autosearch interval N* - Интервал проверки в минутах (от 5)\n" +
		"*/autosearch status* - Статус автопоиска"

	b.reply(chatID, help)
}

func (b *Bot) cmdStatus(ctx context.Context, chatID int64, userID int64) {
	st := b.engine.Status(ctx)

	var sb strings.Builder
	sb.WriteString("📊 *Статус автопоиска:*\n\n")
	if st.Running {
		sb.WriteString("Состояние: ✅ запущен\n")
		sb.WriteString(fmt.Sprintf("Интервал: %d минут\n", st.IntervalMinutes))
		if !st.NextRun.IsZero() {
			sb.WriteString(fmt.Sprintf("Следующая проверка: %s\n", st.NextRun.Format("15:04:05")))
		}
		sb.WriteString(fmt.Sprintf("Отслеживается пользователей: %d\n", st.UsersTracked))
	} else {
		sb.WriteString("Состояние: ⏸ остановлен\n")
	}

	filters, err := b.filters.Get(ctx, userID)
	if err != nil {
		b.log.Error("load filters for status failed", "user_id", userID, "err", err)
	} else {
		sb.WriteString("\n⚙️ *Ваши фильтры:*\n")
		sb.WriteString(formatFiltersText(filters))
	}

	b.reply(chatID, sb.String())
}

func (b *Bot) cmdAutoSearch(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	action := "status"
	if len(fields) > 0 {
		action = strings.ToLower(fields[0])
	}

	switch action {
	case "start":
		interval := b.getDefaultInterval()
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				b.reply(chatID, "❌ Интервал должен быть числом. Пример: /autosearch start 30")
				return
			}
			interval = n
		}
		if err := validateInterval(interval); err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		if err := b.engine.Start(ctx, interval); err != nil {
			b.log.Error("engine start failed", "err", err)
			b.reply(chatID, "❌ Не удалось запустить автопоиск.")
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ Автопоиск запущен. Интервал проверки: %d минут.", interval))

	case "stop":
		b.engine.Stop()
		b.reply(chatID, "🛑 Автопоиск остановлен.")

	case "interval":
		if len(fields) < 2 {
			b.reply(chatID, "❌ Укажите интервал в минутах. Пример: /autosearch interval 30")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			b.reply(chatID, "❌ Интервал должен быть числом. Пример: /autosearch interval 30")
			return
		}
		if err := validateInterval(n); err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		b.setDefaultInterval(n)
		if b.engine.Status(ctx).Running {
			if err := b.engine.Start(ctx, n); err != nil {
				b.log.Error("engine reconfigure failed", "err", err)
				b.reply(chatID, "❌ Не удалось изменить интервал.")
				return
			}
			b.reply(chatID, fmt.Sprintf("✅ Интервал проверки изменён: %d минут.", n))
		} else {
			b.reply(chatID, fmt.Sprintf("✅ Интервал сохранён: %d минут. Запустите автопоиск: /autosearch start", n))
		}

	case "status":
		st := b.engine.Status(ctx)
		if st.Running {
			b.reply(chatID, fmt.Sprintf(
				"✅ Автопоиск запущен.\nИнтервал: %d минут\nСледующая проверка: %s",
				st.IntervalMinutes, st.NextRun.Format("15:04:05")))
		} else {
			b.reply(chatID, "⏸ Автопоиск остановлен. Запустите: /autosearch start")
		}

	default:
		b.reply(chatID, "❌ Неизвестное действие. Используйте: start, stop, interval, status")
	}
}

func (b *Bot) getDefaultInterval() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.defaultInterval
}

func (b *Bot) setDefaultInterval(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultInterval = n
}

// ─── Free-text input ─────────────────────────────────────────────────────────

func (b *Bot) handleTextInput(ctx context.Context, chatID, userID int64, kind awaiting, text string) {
	switch kind {
	case awaitingSalary:
		digits := keepDigits(text)
		if digits == "" {
			b.reply(chatID, "❌ Пожалуйста, введите число!")
			b.state.expect(userID, awaitingSalary)
			return
		}
		if err := b.filters.Save(ctx, userID, model.FilterSalaryMin, digits); err != nil {
			b.saveFilterFailed(chatID, userID, err)
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ Минимальная зарплата сохранена: %s руб.", digits))

	case awaitingProfession:
		if err := b.filters.Save(ctx, userID, model.FilterProfession, text); err != nil {
			b.saveFilterFailed(chatID, userID, err)
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ Профессия сохранена: %s", text))

	case awaitingArea:
		if err := b.filters.Save(ctx, userID, model.FilterArea, text); err != nil {
			b.saveFilterFailed(chatID, userID, err)
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ Город сохранен: %s", text))
	}

	b.showFiltersMenu(ctx, chatID, userID, 0)
}

func (b *Bot) saveFilterFailed(chatID, userID int64, err error) {
	b.log.Error("save filter failed", "user_id", userID, "err", err)
	b.reply(chatID, "❌ Ошибка при сохранении. Попробуйте снова.")
}

func keepDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ─── Callbacks ───────────────────────────────────────────────────────────────

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("answer callback failed", "err", err)
	}
	if cb.Message == nil {
		return
	}

	user, err := b.users.Upsert(ctx, cb.From.ID, cb.From.FirstName, cb.From.UserName)
	if err != nil {
		b.log.Error("upsert user failed", "telegram_id", cb.From.ID, "err", err)
		return
	}

	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	data := cb.Data

	b.log.Info("callback", "user_id", user.ID, "data", data)

	switch {
	case data == "back_to_filters":
		b.showFiltersMenu(ctx, chatID, user.ID, msgID)

	case data == "back_to_main":
		b.edit(chatID, msgID, "Возврат в главное меню...")
		b.replyWithKeyboard(chatID, "Главное меню:", mainKeyboard())

	case data == notify.CallbackShowAll:
		b.runSearch(ctx, chatID, user.ID)

	case strings.HasPrefix(data, "filter_"):
		b.handleFilterSelection(ctx, chatID, user.ID, msgID, data)

	case strings.HasPrefix(data, "prof_"):
		b.handleFilterValue(ctx, chatID, user.ID, msgID, model.FilterProfession,
			strings.TrimPrefix(data, "prof_"), awaitingProfession,
			"💼 *Введите профессию:*\n\nПример: Python разработчик")

	case strings.HasPrefix(data, "exp_"):
		b.saveAndShowMenu(ctx, chatID, user.ID, msgID, model.FilterExperience, strings.TrimPrefix(data, "exp_"))

	case strings.HasPrefix(data, "schedule_"):
		b.saveAndShowMenu(ctx, chatID, user.ID, msgID, model.FilterSchedule, strings.TrimPrefix(data, "schedule_"))

	case strings.HasPrefix(data, "employment_"):
		b.saveAndShowMenu(ctx, chatID, user.ID, msgID, model.FilterEmployment, strings.TrimPrefix(data, "employment_"))

	case strings.HasPrefix(data, "area_"):
		b.handleFilterValue(ctx, chatID, user.ID, msgID, model.FilterArea,
			strings.TrimPrefix(data, "area_"), awaitingArea,
			"🌍 *Введите город:*\n\nПример: Москва")

	case data == "filters_save":
		b.edit(chatID, msgID, "✅ Фильтры сохранены!")
		b.replyWithKeyboard(chatID, "Главное меню:", mainKeyboard())

	case data == "filters_clear":
		if err := b.filters.Clear(ctx, user.ID); err != nil {
			b.log.Error("clear filters failed", "user_id", user.ID, "err", err)
			b.edit(chatID, msgID, "❌ Ошибка при очистке фильтров.")
			return
		}
		// New filters mean a fresh search profile; the delivery history
		// resets with them so nothing relevant is silently suppressed.
		if err := b.history.Clear(ctx, user.ID); err != nil {
			b.log.Error("clear delivery history failed", "user_id", user.ID, "err", err)
		}
		b.edit(chatID, msgID, "🧹 Все фильтры очищены!")
		b.replyWithKeyboard(chatID, "Главное меню:", mainKeyboard())

	case strings.HasPrefix(data, "vac_next_"), strings.HasPrefix(data, "vac_prev_"):
		idx, err := strconv.Atoi(data[strings.LastIndex(data, "_")+1:])
		if err != nil {
			return
		}
		b.sendVacancyPage(ctx, chatID, user.ID, idx, msgID)

	case data == "vac_page":
		// Page indicator, nothing to do.

	default:
		b.log.Warn("unknown callback", "data", data)
	}
}

func (b *Bot) handleFilterSelection(ctx context.Context, chatID, userID int64, msgID int, data string) {
	switch data {
	case "filter_profession":
		b.editWithKeyboard(chatID, msgID, "💼 *Выберите профессию:*", professionKeyboard())
	case "filter_salary":
		b.state.expect(userID, awaitingSalary)
		b.edit(chatID, msgID, "💰 *Введите минимальную зарплату в рублях:*\n\nПример: 100000")
	case "filter_experience":
		b.editWithKeyboard(chatID, msgID, "🎓 *Выберите требуемый опыт:*", experienceKeyboard())
	case "filter_schedule":
		b.editWithKeyboard(chatID, msgID, "📍 *Выберите формат работы:*", scheduleKeyboard())
	case "filter_employment":
		b.editWithKeyboard(chatID, msgID, "🏢 *Выберите тип занятости:*", employmentKeyboard())
	case "filter_area":
		b.editWithKeyboard(chatID, msgID, "🌍 *Выберите город:*", areaKeyboard())
	}
}

// handleFilterValue saves a picked value, or arms free-text input when the
// user chose "enter your own".
func (b *Bot) handleFilterValue(
	ctx context.Context,
	chatID, userID int64,
	msgID int,
	key model.FilterKey,
	value string,
	customKind awaiting,
	customPrompt string,
) {
	if value == "custom" {
		b.state.expect(userID, customKind)
		b.edit(chatID, msgID, customPrompt)
		return
	}
	b.saveAndShowMenu(ctx, chatID, userID, msgID, key, value)
}

func (b *Bot) saveAndShowMenu(ctx context.Context, chatID, userID int64, msgID int, key model.FilterKey, value string) {
	if err := b.filters.Save(ctx, userID, key, value); err != nil {
		b.log.Error("save filter failed", "user_id", userID, "key", key, "err", err)
		b.edit(chatID, msgID, "❌ Ошибка при сохранении фильтра.")
		return
	}
	b.showFiltersMenu(ctx, chatID, userID, msgID)
}

func (b *Bot) showFiltersMenu(ctx context.Context, chatID, userID int64, msgID int) {
	filters, err := b.filters.Get(ctx, userID)
	if err != nil {
		b.log.Error("load filters failed", "user_id", userID, "err", err)
		b.reply(chatID, "❌ Не удалось загрузить фильтры.")
		return
	}

	text := fmt.Sprintf(
		"⚙️ *Настройка фильтров поиска*\n\nТекущие настройки:\n%s\n\nВыберите параметр для настройки:",
		formatFiltersText(filters))

	if msgID != 0 {
		b.editWithKeyboard(chatID, msgID, text, filtersMenuKeyboard())
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = filtersMenuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send filters menu failed", "err", err)
	}
}

// ─── On-demand search ────────────────────────────────────────────────────────

func (b *Bot) runSearch(ctx context.Context, chatID, userID int64) {
	b.replyWithKeyboard(chatID, "🔍 Ищу вакансии по вашим фильтрам...", mainKeyboard())

	filters, err := b.filters.Get(ctx, userID)
	if err != nil {
		b.log.Error("load filters failed", "user_id", userID, "err", err)
		b.reply(chatID, "❌ Не удалось загрузить фильтры.")
		return
	}
	if len(filters) == 0 {
		b.reply(chatID, "❌ У вас не настроены фильтры поиска.\n\nСначала настройте фильтры в меню ⚙️ Фильтры")
		return
	}

	q := b.norm.Normalize(filters)
	if q.Text == "" {
		q.Text = defaultSearchText
	}

	vacancies := b.gateway.Search(ctx, q)
	if len(vacancies) == 0 {
		b.reply(chatID, "😔 По вашим фильтрам ничего не найдено.\n\nПопробуйте изменить параметры поиска.")
		return
	}

	b.sessions.put(userID, vacancies)
	b.sendVacancyPage(ctx, chatID, userID, 0, 0)
}

func (b *Bot) sendVacancyPage(ctx context.Context, chatID, userID int64, index int, msgID int) {
	sess := b.sessions.get(userID)
	if sess == nil {
		b.reply(chatID, "❌ Результаты поиска устарели. Запустите поиск заново.")
		return
	}
	if index < 0 || index >= len(sess.vacancies) {
		return
	}

	// The cached record may be stale by the time the user pages to it;
	// re-fetch the listing and fall back to the cache if that fails.
	v := sess.vacancies[index]
	if fresh, err := b.gateway.Vacancy(ctx, v.ID); err == nil && fresh != nil {
		v = *fresh
	}

	text := notify.Format(v, time.Now())
	kb := vacancyNavKeyboard(index, len(sess.vacancies))

	if msgID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb)
		edit.ParseMode = tgbotapi.ModeMarkdown
		edit.DisableWebPagePreview = true
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error("edit vacancy page failed", "err", err)
		}
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = kb
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send vacancy page failed", "err", err)
		}
	}

	b.sessions.setIndex(userID, index)
}

// ─── Send helpers ────────────────────────────────────────────────────────────

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) edit(chatID int64, msgID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit message failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) editWithKeyboard(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit message failed", "chat_id", chatID, "err", err)
	}
}
