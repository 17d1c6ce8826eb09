// Package store implements the Postgres-backed user and filter repositories.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the tables the bot needs if they do not exist yet.
// Called once at startup.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id          BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT UNIQUE NOT NULL,
		first_name  VARCHAR(100),
		username    VARCHAR(100),
		is_active   BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_filters (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		filter_type  VARCHAR(50) NOT NULL,
		filter_value TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, filter_type)
	);

	CREATE INDEX IF NOT EXISTS idx_user_filters_user_id ON user_filters(user_id);
	`

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
