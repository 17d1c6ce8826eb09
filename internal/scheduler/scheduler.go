// Package scheduler owns the recurring background check: on every tick it
// fans out one vacancy check per active user, filters out already-delivered
// vacancies, and hands the rest to the dispatcher.
//
// The engine is a two-state machine (stopped, running). Start, Stop and
// Status may be called from command handlers while a tick is mid-flight;
// the mutex only guards the timer state, never the pass itself — an
// in-flight pass always runs to completion. At most one pass runs at a
// time: a tick or immediate pass that fires while another is in flight is
// skipped, never queued.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BarIlya77/job-search-bot-v2/internal/hh"
	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// MinIntervalMinutes is the floor the command layer enforces before calling
// Start. The engine itself accepts any positive interval.
const MinIntervalMinutes = 5

// defaultUserPause spaces out per-user API calls within one tick.
const defaultUserPause = time.Second

// UserSource lists the users a pass iterates over.
type UserSource interface {
	ListActive(ctx context.Context) ([]model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
}

// FilterSource reads a user's stored filters; re-read fresh on every check.
type FilterSource interface {
	Get(ctx context.Context, userID int64) (model.FilterSet, error)
}

// Normalizer converts a filter set into gateway parameters.
type Normalizer interface {
	Normalize(filters model.FilterSet) hh.Query
}

// Searcher runs a vacancy search; failures surface as an empty result.
type Searcher interface {
	Search(ctx context.Context, q hh.Query) []model.Vacancy
}

// Ledger is the authority for "has this user already seen this vacancy".
type Ledger interface {
	IsNew(ctx context.Context, userID int64, vacancyID string) (bool, error)
	MarkDelivered(ctx context.Context, userID int64, vacancyIDs []string) error
	Track(ctx context.Context, userID int64) error
	UsersTracked(ctx context.Context) (int, error)
}

// Notifier delivers a batch of new vacancies to a chat, best-effort.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, vacancies []model.Vacancy)
}

// Status is a read-only snapshot of the engine state.
type Status struct {
	Running         bool
	IntervalMinutes int
	NextRun         time.Time
	UsersTracked    int
	JobCount        int
}

// Engine schedules and runs the recurring vacancy checks.
type Engine struct {
	users    UserSource
	filters  FilterSource
	norm     Normalizer
	gateway  Searcher
	ledger   Ledger
	notifier Notifier
	log      *slog.Logger

	userPause time.Duration
	now       func() time.Time

	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	running  bool
	interval int

	// passMu serializes passes from every origin. Cron firings are already
	// chained through SkipIfStillRunning, but the immediate pass on Start
	// is not, so runPass guards itself as well.
	passMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithUserPause overrides the delay between users within one tick.
func WithUserPause(d time.Duration) Option {
	return func(e *Engine) { e.userPause = d }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a stopped Engine. The cron runner skips a firing when the
// previous tick is still in flight, so at most one pass runs at a time.
func New(
	users UserSource,
	filters FilterSource,
	norm Normalizer,
	gateway Searcher,
	ledger Ledger,
	notifier Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		users:     users,
		filters:   filters,
		norm:      norm,
		gateway:   gateway,
		ledger:    ledger,
		notifier:  notifier,
		log:       logger.With("component", "scheduler"),
		userPause: defaultUserPause,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(e.log.Handler(), slog.LevelWarn))
	e.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLog)))
	return e
}

// Start begins (or reconfigures) the recurring check. If already running,
// the existing timer is replaced in place — never duplicated. On a cold
// start every known user is registered in the ledger, and one immediate
// out-of-band pass runs so the first results do not wait a full interval.
func (e *Engine) Start(ctx context.Context, intervalMinutes int) error {
	if intervalMinutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", intervalMinutes)
	}

	e.mu.Lock()
	wasRunning := e.running

	if e.entryID != 0 {
		e.cron.Remove(e.entryID)
		e.entryID = 0
	}

	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	entryID, err := e.cron.AddFunc(spec, func() {
		e.runPass(ctx)
	})
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	e.entryID = entryID
	e.interval = intervalMinutes
	e.running = true
	e.mu.Unlock()

	if !wasRunning {
		e.trackKnownUsers(ctx)
		e.cron.Start()
	}

	e.log.Info("auto search started", "interval_minutes", intervalMinutes, "reconfigured", wasRunning)

	// First results should not wait a full interval.
	go e.runPass(ctx)

	return nil
}

// Stop cancels the recurring timer. Delivery history is kept, so a later
// Start does not re-notify anything within the same retention window.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	if e.entryID != 0 {
		e.cron.Remove(e.entryID)
		e.entryID = 0
	}
	e.cron.Stop()
	e.running = false

	e.log.Info("auto search stopped")
}

// Status returns a snapshot of the engine. Safe to call while a tick is in
// progress or while Start/Stop executes.
func (e *Engine) Status(ctx context.Context) Status {
	e.mu.Lock()
	st := Status{
		Running:         e.running,
		IntervalMinutes: e.interval,
		JobCount:        len(e.cron.Entries()),
	}
	if e.running && e.entryID != 0 {
		st.NextRun = e.cron.Entry(e.entryID).Next
	}
	e.mu.Unlock()

	tracked, err := e.ledger.UsersTracked(ctx)
	if err != nil {
		e.log.Warn("users tracked lookup failed", "err", err)
	}
	st.UsersTracked = tracked

	return st
}

// trackKnownUsers registers every known user in the ledger so the status
// snapshot reflects them before their first check.
func (e *Engine) trackKnownUsers(ctx context.Context) {
	users, err := e.users.ListAll(ctx)
	if err != nil {
		e.log.Error("load users for tracking failed", "err", err)
		return
	}
	for _, u := range users {
		if err := e.ledger.Track(ctx, u.ID); err != nil {
			e.log.Warn("track user failed", "user_id", u.ID, "err", err)
		}
	}
	e.log.Info("users registered for auto search", "count", len(users))
}

// runPass executes one full tick: every active user, sequentially, with a
// pause in between. A failure for one user never aborts the rest. If
// another pass is still in flight the new one is skipped: two concurrent
// passes could both see a vacancy as new before either records delivery.
func (e *Engine) runPass(ctx context.Context) {
	if !e.passMu.TryLock() {
		e.log.Info("pass already in flight, skipping")
		return
	}
	defer e.passMu.Unlock()

	e.log.Info("auto search pass started")

	users, err := e.users.ListActive(ctx)
	if err != nil {
		e.log.Error("load active users failed", "err", err)
		return
	}
	if len(users) == 0 {
		e.log.Info("no active users, nothing to check")
		return
	}

	for i, u := range users {
		if err := e.checkUser(ctx, u); err != nil {
			e.log.Error("user check failed", "user_id", u.ID, "err", err)
		}
		if i < len(users)-1 {
			time.Sleep(e.userPause)
		}
	}

	e.log.Info("auto search pass complete", "users", len(users))
}

// checkUser runs the full chain for one user: filters → normalize → search
// → dedup → dispatch → ledger update. Panics are contained here so one bad
// user cannot take down the pass.
func (e *Engine) checkUser(ctx context.Context, u model.User) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during user check: %v", r)
		}
	}()

	filters, err := e.filters.Get(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("load filters: %w", err)
	}
	if len(filters) == 0 {
		// No filters means no background search for this user.
		return nil
	}

	q := e.norm.Normalize(filters).Background(e.now())
	vacancies := e.gateway.Search(ctx, q)
	if len(vacancies) == 0 {
		return nil
	}

	var fresh []model.Vacancy
	for _, v := range vacancies {
		isNew, err := e.ledger.IsNew(ctx, u.ID, v.ID)
		if err != nil {
			return fmt.Errorf("ledger lookup: %w", err)
		}
		if isNew {
			fresh = append(fresh, v)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	// Hand the batch to the dispatcher, then mark everything delivered.
	// A transport failure after this point means the item is not retried:
	// no-duplicate wins over no-loss.
	e.notifier.Notify(ctx, u.TelegramID, fresh)

	ids := make([]string, len(fresh))
	for i, v := range fresh {
		ids[i] = v.ID
	}
	if err := e.ledger.MarkDelivered(ctx, u.ID, ids); err != nil {
		return fmt.Errorf("ledger update: %w", err)
	}

	e.log.Info("new vacancies delivered", "user_id", u.ID, "count", len(fresh))
	return nil
}
