package bot

import (
	"sync"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// searchSession holds the result of one on-demand search for paging with
// the prev/next buttons. Replaced wholesale on every new search.
type searchSession struct {
	vacancies []model.Vacancy
	index     int
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*searchSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*searchSession)}
}

func (s *sessionStore) put(userID int64, vacancies []model.Vacancy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = &searchSession{vacancies: vacancies}
}

func (s *sessionStore) get(userID int64) *searchSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions[userID]
}

func (s *sessionStore) setIndex(userID int64, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.sessions[userID]; sess != nil {
		sess.index = index
	}
}
