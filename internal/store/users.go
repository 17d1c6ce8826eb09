package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// Users is the repository for the users table.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers returns a configured Users repository.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// Upsert creates a user on first interaction or refreshes name/username on
// repeat contact. Never touches the is_active flag.
func (s *Users) Upsert(ctx context.Context, telegramID int64, firstName, username string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (telegram_id, first_name, username)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (telegram_id) DO UPDATE
		 SET first_name = EXCLUDED.first_name,
		     username   = EXCLUDED.username
		 RETURNING id, telegram_id, first_name, username, is_active, created_at`,
		telegramID, firstName, username,
	).Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.Username, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

// ByTelegramID returns the user with the given external chat address.
func (s *Users) ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, telegram_id, first_name, username, is_active, created_at
		 FROM users WHERE telegram_id = $1`,
		telegramID,
	).Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.Username, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

// SetActive toggles whether the user participates in background checks.
func (s *Users) SetActive(ctx context.Context, telegramID int64, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active = $2 WHERE telegram_id = $1`,
		telegramID, active,
	)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns all users with is_active = true, in a fixed order.
func (s *Users) ListActive(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, `SELECT id, telegram_id, first_name, username, is_active, created_at
		FROM users WHERE is_active = true ORDER BY id`)
}

// ListAll returns every known user, in a fixed order.
func (s *Users) ListAll(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, `SELECT id, telegram_id, first_name, username, is_active, created_at
		FROM users ORDER BY id`)
}

func (s *Users) list(ctx context.Context, query string) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.Username, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
