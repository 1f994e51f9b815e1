package memory

import (
	"context"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
)

type sessionEntry struct {
	game    *app.Game
	touched time.Time
}

// SessionStore is an in-memory implementation of app.SessionRepository.
// With an idle TTL it reports games nobody touched within that window.
type SessionStore struct {
	mu      sync.RWMutex
	games   map[string]*sessionEntry
	idleTTL time.Duration
	now     func() time.Time
}

type SessionOption func(*SessionStore)

// WithIdleTTL makes games untouched for ttl show up in Idle. Zero keeps
// games until they are deleted.
func WithIdleTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) { s.idleTTL = ttl }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		games: make(map[string]*sessionEntry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) Save(game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = &sessionEntry{game: game, touched: s.now()}
}

func (s *SessionStore) Get(gameID string) (*app.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.games[gameID]
	if !ok {
		return nil, false
	}
	entry.touched = s.now()
	return entry.game, true
}

func (s *SessionStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
}

// Idle lists games untouched for longer than the idle TTL.
func (s *SessionStore) Idle(_ context.Context) []string {
	if s.idleTTL <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.idleTTL)
	var ids []string
	for id, entry := range s.games {
		if entry.touched.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len reports how many games are running.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
