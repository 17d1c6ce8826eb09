package ledger

import (
	"context"
	"sync"
)

// MemoryLedger keeps delivery history in process memory. History is lost on
// restart, so already-seen vacancies may be re-notified after a redeploy;
// configure Redis to avoid that.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[int64]map[string]struct{}
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[int64]map[string]struct{})}
}

// IsNew reports whether the vacancy has not been delivered to the user yet.
func (l *MemoryLedger) IsNew(_ context.Context, userID int64, vacancyID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, delivered := l.seen[userID][vacancyID]
	return !delivered, nil
}

// MarkDelivered records a batch of vacancy ids as delivered to the user.
func (l *MemoryLedger) MarkDelivered(_ context.Context, userID int64, vacancyIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.seen[userID]
	if set == nil {
		set = make(map[string]struct{})
		l.seen[userID] = set
	}
	for _, id := range vacancyIDs {
		set[id] = struct{}{}
	}
	return nil
}

// Track registers a user with an empty delivery set.
func (l *MemoryLedger) Track(_ context.Context, userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[userID] == nil {
		l.seen[userID] = make(map[string]struct{})
	}
	return nil
}

// UsersTracked returns how many users have ledger state.
func (l *MemoryLedger) UsersTracked(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen), nil
}

// Clear wipes the delivery history for one user. The user stays tracked.
func (l *MemoryLedger) Clear(_ context.Context, userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[userID] != nil {
		l.seen[userID] = make(map[string]struct{})
	}
	return nil
}

// Size returns how many vacancy ids are recorded for a user.
func (l *MemoryLedger) Size(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen[userID])
}
