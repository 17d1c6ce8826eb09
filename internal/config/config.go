// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the bot.
type Config struct {
	BotToken             string
	DatabaseURL          string
	RedisURL             string // optional; empty means in-memory dedup ledger
	HHBaseURL            string
	CheckIntervalMinutes int // default auto-search interval
	LedgerRetentionDays  int // how long delivered vacancy ids are remembered
	LogLevel             string
}

// Load reads environment variables and returns a validated Config.
// A local .env file is picked up when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	interval := 60
	if s := os.Getenv("CHECK_INTERVAL_MINUTES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("CHECK_INTERVAL_MINUTES must be a positive integer, got %q", s)
		}
		interval = v
	}

	retention := 7
	if s := os.Getenv("LEDGER_RETENTION_DAYS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("LEDGER_RETENTION_DAYS must be a positive integer, got %q", s)
		}
		retention = v
	}

	baseURL := os.Getenv("HH_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.hh.ru"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		BotToken:             token,
		DatabaseURL:          dbURL,
		RedisURL:             os.Getenv("REDIS_URL"),
		HHBaseURL:            baseURL,
		CheckIntervalMinutes: interval,
		LedgerRetentionDays:  retention,
		LogLevel:             logLevel,
	}, nil
}
