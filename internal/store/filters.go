package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Filters is the repository for the user_filters table.
type Filters struct {
	pool *pgxpool.Pool
}

// NewFilters returns a configured Filters repository.
func NewFilters(pool *pgxpool.Pool) *Filters {
	return &Filters{pool: pool}
}

// Get returns all filters for a user as a FilterSet. An empty set means the
// user has not configured anything yet.
func (s *Filters) Get(ctx context.Context, userID int64) (model.FilterSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT filter_type, filter_value FROM user_filters WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user_filters: %w", err)
	}
	defer rows.Close()

	filters := model.FilterSet{}
	for rows.Next() {
		var raw, value string
		if err := rows.Scan(&raw, &value); err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		key, err := model.ParseFilterKey(raw)
		if err != nil {
			// A row left behind by an older schema; skip it.
			continue
		}
		filters[key] = value
	}
	return filters, rows.Err()
}

// Save stores or replaces one filter value for a user. Last write wins.
func (s *Filters) Save(ctx context.Context, userID int64, key model.FilterKey, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_filters (user_id, filter_type, filter_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, filter_type) DO UPDATE
		 SET filter_value = EXCLUDED.filter_value,
		     updated_at   = NOW()`,
		userID, string(key), value,
	)
	if err != nil {
		return fmt.Errorf("save filter %s: %w", key, err)
	}
	return nil
}

// Delete removes one filter for a user.
func (s *Filters) Delete(ctx context.Context, userID int64, key model.FilterKey) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM user_filters WHERE user_id = $1 AND filter_type = $2`,
		userID, string(key),
	)
	if err != nil {
		return fmt.Errorf("delete filter %s: %w", key, err)
	}
	return nil
}

// Clear removes all filters for a user.
func (s *Filters) Clear(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM user_filters WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear filters: %w", err)
	}
	return nil
}
