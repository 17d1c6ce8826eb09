// job-search-bot — Telegram bot for job hunting on HH.ru.
//
// Wires together:
//   - internal/hh        — HH.ru vacancy search gateway
//   - internal/filter    — user filter normalization into API queries
//   - internal/ledger    — per-user delivered-vacancy dedup (Redis or memory)
//   - internal/scheduler — recurring background checks
//   - internal/notify    — Telegram message formatting and dispatch
//   - internal/bot       — command and callback surface
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/BarIlya77/job-search-bot-v2/internal/bot"
	"github.com/BarIlya77/job-search-bot-v2/internal/config"
	"github.com/BarIlya77/job-search-bot-v2/internal/db"
	"github.com/BarIlya77/job-search-bot-v2/internal/filter"
	"github.com/BarIlya77/job-search-bot-v2/internal/hh"
	"github.com/BarIlya77/job-search-bot-v2/internal/ledger"
	"github.com/BarIlya77/job-search-bot-v2/internal/notify"
	"github.com/BarIlya77/job-search-bot-v2/internal/scheduler"
	"github.com/BarIlya77/job-search-bot-v2/internal/store"
)

const version = "2.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[bot] Config error: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[bot] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[bot] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := store.InitSchema(ctx, pool); err != nil {
		log.Fatalf("[bot] Schema: %v", err)
	}
	log.Println("[bot] PostgreSQL connected ✓")

	// ── Dedup ledger ─────────────────────────────────────────────────────────
	var (
		dedup   scheduler.Ledger
		history bot.History
	)
	if cfg.RedisURL != "" {
		log.Println("[bot] Connecting to Redis…")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[bot] Redis: %v", err)
		}
		defer rdb.Close()
		rl := ledger.NewRedisLedger(rdb, time.Duration(cfg.LedgerRetentionDays)*24*time.Hour)
		dedup, history = rl, rl
		log.Println("[bot] Redis connected ✓")
	} else {
		log.Println("[bot] REDIS_URL not set, using in-memory dedup ledger (history is lost on restart)")
		ml := ledger.NewMemoryLedger()
		dedup, history = ml, ml
	}

	// ── Telegram ─────────────────────────────────────────────────────────────
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("[bot] Telegram: %v", err)
	}
	log.Printf("[bot] Authorized as @%s", api.Self.UserName)

	// ── Services ─────────────────────────────────────────────────────────────
	users := store.NewUsers(pool)
	filters := store.NewFilters(pool)
	gateway := hh.NewClient(cfg.HHBaseURL, logger)
	norm := filter.New(logger)
	dispatcher := notify.NewDispatcher(bot.NewSender(api), logger)
	engine := scheduler.New(users, filters, norm, gateway, dedup, dispatcher, logger)

	b := bot.New(api, users, filters, engine, gateway, norm, history, cfg.CheckIntervalMinutes, logger)

	go b.Run(ctx)
	log.Printf("[bot] v%s running, default check interval %d min", version, cfg.CheckIntervalMinutes)

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[bot] Shutting down…")
	engine.Stop()
	cancel()
	log.Println("[bot] Stopped.")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
