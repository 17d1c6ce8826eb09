// Package ledger records which vacancies have already been delivered to
// which user. It is the single authority for "is this vacancy new".
//
// Two implementations exist: a Redis-backed one that survives restarts with
// a bounded retention window, and an in-memory one used when Redis is not
// configured and as a test double.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	seenKeyPrefix = "seen:"
	usersKey      = "seen:users"
)

// RedisLedger stores delivered vacancy ids in Redis. Every (user, vacancy)
// pair is one key with a TTL, so the history survives process restarts but
// never grows unbounded.
type RedisLedger struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewRedisLedger returns a ledger with the given retention window.
func NewRedisLedger(rdb *redis.Client, retention time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, retention: retention}
}

func seenKey(userID int64, vacancyID string) string {
	return fmt.Sprintf("%s%d:%s", seenKeyPrefix, userID, vacancyID)
}

// IsNew reports whether the vacancy has not been delivered to the user yet.
func (l *RedisLedger) IsNew(ctx context.Context, userID int64, vacancyID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, seenKey(userID, vacancyID)).Result()
	if err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return n == 0, nil
}

// MarkDelivered records a batch of vacancy ids as delivered to the user.
func (l *RedisLedger) MarkDelivered(ctx context.Context, userID int64, vacancyIDs []string) error {
	if len(vacancyIDs) == 0 {
		return nil
	}

	deliveredAt := time.Now().UTC().Format(time.RFC3339)
	pipe := l.rdb.Pipeline()
	for _, id := range vacancyIDs {
		pipe.Set(ctx, seenKey(userID, id), deliveredAt, l.retention)
	}
	pipe.SAdd(ctx, usersKey, strconv.FormatInt(userID, 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger mark delivered: %w", err)
	}
	return nil
}

// Track registers a user without marking anything delivered.
func (l *RedisLedger) Track(ctx context.Context, userID int64) error {
	if err := l.rdb.SAdd(ctx, usersKey, strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("ledger track user: %w", err)
	}
	return nil
}

// UsersTracked returns how many users have ledger state.
func (l *RedisLedger) UsersTracked(ctx context.Context) (int, error) {
	n, err := l.rdb.SCard(ctx, usersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("ledger users tracked: %w", err)
	}
	return int(n), nil
}

// Clear wipes the delivery history for one user.
func (l *RedisLedger) Clear(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("%s%d:*", seenKeyPrefix, userID)
	iter := l.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := l.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("ledger clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("ledger clear scan: %w", err)
	}
	return nil
}
