package bot

import (
	"sync"
	"time"
)

// awaiting enumerates what kind of free-text input the bot expects from a
// user. Entries expire after inputTTL so an abandoned prompt cannot swallow
// an unrelated message days later.
type awaiting int

const (
	awaitingNone awaiting = iota
	awaitingProfession
	awaitingSalary
	awaitingArea
)

const inputTTL = 5 * time.Minute

type pendingInput struct {
	kind     awaiting
	deadline time.Time
}

// inputState tracks the per-user conversation state. Safe for concurrent
// use: the polling loop and scheduler callbacks run on separate goroutines.
type inputState struct {
	mu      sync.Mutex
	pending map[int64]pendingInput
	now     func() time.Time
}

func newInputState() *inputState {
	return &inputState{
		pending: make(map[int64]pendingInput),
		now:     time.Now,
	}
}

// expect arms the state: the next text message from the user is treated as
// input of the given kind.
func (s *inputState) expect(userID int64, kind awaiting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[userID] = pendingInput{kind: kind, deadline: s.now().Add(inputTTL)}
}

// take consumes and returns the pending input kind for the user.
// Expired or absent entries yield awaitingNone.
func (s *inputState) take(userID int64) awaiting {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[userID]
	if !ok {
		return awaitingNone
	}
	delete(s.pending, userID)

	if s.now().After(entry.deadline) {
		return awaitingNone
	}
	return entry.kind
}
