package redis

import (
	"context"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Engines stay in a local map; they hold a random source and cannot be
//     serialised meaningfully.
//   - Redis carries a liveness marker per game (player and variant) so other
//     instances and operators can see which games are running.
//   - A marker expires after ttl without access; Idle reports those games so
//     the service can end them and free the local entry.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		client: client,
		ttl:    ttl,
		logger: logger,
		games:  make(map[string]*app.Game),
	}
}

func (s *SessionStore) Save(game *app.Game) {
	s.mu.Lock()
	s.games[game.ID] = game
	s.mu.Unlock()
	s.mark(context.Background(), game)
}

// Get refreshes the liveness marker, recreating it when it already expired
// so a game in use is never reported idle.
func (s *SessionStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	game, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok || s.ttl <= 0 {
		return game, ok
	}
	ctx := context.Background()
	alive, err := s.client.Expire(ctx, s.key(gameID), s.ttl).Result()
	if err == nil && !alive {
		s.mark(ctx, game)
	}
	return game, true
}

func (s *SessionStore) Delete(gameID string) {
	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), s.key(gameID)).Err(); err != nil {
		s.logger.Warn("clear game marker", zap.String("game_id", gameID), zap.Error(err))
	}
}

// Idle lists local games whose liveness marker has expired.
func (s *SessionStore) Idle(ctx context.Context) []string {
	if s.ttl <= 0 {
		return nil
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var idle []string
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			s.logger.Warn("check game marker", zap.String("game_id", id), zap.Error(err))
			return idle
		}
		if n == 0 {
			idle = append(idle, id)
		}
	}
	return idle
}

// mark writes the best-effort liveness marker.
func (s *SessionStore) mark(ctx context.Context, game *app.Game) {
	key := s.key(game.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"player", game.PlayerID,
		"variant", game.Variant().Name,
		"catalog", game.Catalog,
		"started_at", game.StartedAt.Unix(),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("mark game live", zap.String("game_id", game.ID), zap.Error(err))
	}
}

func (s *SessionStore) key(gameID string) string {
	return "flagquiz:game:" + gameID
}
