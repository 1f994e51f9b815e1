package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/engine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts where running games are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(game *Game)
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
}

// IdleLister is implemented by session stores that expire inactive games.
type IdleLister interface {
	Idle(ctx context.Context) []string
}

// CatalogRepository loads flag catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, name string) (domain.Catalog, error)
}

// Recorder observes game events; telemetry.Metrics implements it.
type Recorder interface {
	GameStarted(variant string)
	AnswerSubmitted(variant string, outcome domain.Outcome)
	GameOver(variant string, score int)
	GameEnded(variant string)
}

type nopRecorder struct{}

func (nopRecorder) GameStarted(string) {}
func (nopRecorder) AnswerSubmitted(string, domain.Outcome) {}
func (nopRecorder) GameOver(string, int) {}
func (nopRecorder) GameEnded(string) {}

// Game is one player's running quiz. The engine is single-threaded; the game
// lock serialises callers such as websocket readers and bot updates.
type Game struct {
	ID          string
	PlayerID    string
	DisplayName string
	Catalog     string
	StartedAt   time.Time

	mu     sync.Mutex
	engine *engine.Engine
}

// NewGame wraps an engine for storage in a SessionRepository.
func NewGame(id, playerID, displayName, catalog string, eng *engine.Engine) *Game {
	return &Game{
		ID:          id,
		PlayerID:    playerID,
		DisplayName: displayName,
		Catalog:     catalog,
		StartedAt:   time.Now(),
		engine:      eng,
	}
}

// Variant returns the rules the game is played by.
func (g *Game) Variant() domain.Variant {
	return g.engine.Variant()
}

func (g *Game) snapshotLocked() domain.Snapshot {
	snap := g.engine.Snapshot()
	snap.GameID = g.ID
	return snap
}

// StartRequest describes a new game.
type StartRequest struct {
	GameID      string
	PlayerID    string
	DisplayName string
	Catalog     string
	Variant     string
}

// Option configures a GameService.
type Option func(*GameService)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *GameService) { s.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *GameService) { s.recorder = recorder }
}

// WithDefaultVariant sets the rules used when a request names none.
func WithDefaultVariant(variant domain.Variant) Option {
	return func(s *GameService) { s.defaultVariant = variant }
}

// WithDefaultCatalog sets the catalog used when a request names none.
func WithDefaultCatalog(name string) Option {
	return func(s *GameService) { s.defaultCatalog = name }
}

// WithRandSource sets how each new game gets its randomness.
func WithRandSource(newRand func() engine.Rand) Option {
	return func(s *GameService) { s.newRand = newRand }
}

// GameService contains the quiz use cases.
type GameService struct {
	sessions       SessionRepository
	catalogs       CatalogRepository
	scoreboard     *Scoreboard
	logger         *zap.Logger
	recorder       Recorder
	defaultVariant domain.Variant
	defaultCatalog string
	newRand        func() engine.Rand
}

func NewGameService(sessions SessionRepository, catalogs CatalogRepository, opts ...Option) *GameService {
	s := &GameService{
		sessions:       sessions,
		catalogs:       catalogs,
		scoreboard:     NewScoreboard(),
		logger:         zap.NewNop(),
		recorder:       nopRecorder{},
		defaultVariant: domain.DefaultVariant,
		defaultCatalog: domain.DefaultCatalogName,
		newRand:        func() engine.Rand { return engine.NewRand(0) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a game for a player and returns its first question.
func (s *GameService) Start(ctx context.Context, req StartRequest) (domain.Snapshot, error) {
	variant := s.defaultVariant
	if req.Variant != "" {
		v, err := domain.ParseVariant(req.Variant)
		if err != nil {
			return domain.Snapshot{}, err
		}
		variant = v
	}

	catalogName := req.Catalog
	if catalogName == "" {
		catalogName = s.defaultCatalog
	}
	catalog, err := s.catalogs.GetCatalog(ctx, catalogName)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load catalog %q: %w", catalogName, err)
	}

	eng, err := engine.New(catalog, variant, s.newRand())
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("catalog %q: %w", catalogName, err)
	}

	gameID := req.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	game := NewGame(gameID, req.PlayerID, req.DisplayName, catalogName, eng)
	s.sessions.Save(game)
	s.scoreboard.Join(req.PlayerID, req.DisplayName)
	s.recorder.GameStarted(variant.Name)
	s.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.String("player_id", req.PlayerID),
		zap.String("variant", variant.Name),
		zap.String("catalog", catalogName),
	)

	game.mu.Lock()
	defer game.mu.Unlock()
	return game.snapshotLocked(), nil
}

// Snapshot returns the current view of a game.
func (s *GameService) Snapshot(_ context.Context, gameID string) (domain.Snapshot, error) {
	game, err := s.game(gameID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	game.mu.Lock()
	defer game.mu.Unlock()
	return game.snapshotLocked(), nil
}

// Answer submits option for the current question.
func (s *GameService) Answer(_ context.Context, gameID, option string) (domain.AnswerResult, error) {
	game, err := s.game(gameID)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	game.mu.Lock()
	outcome, err := game.engine.SubmitAnswer(option)
	snap := game.snapshotLocked()
	game.mu.Unlock()
	if err != nil {
		return domain.AnswerResult{}, err
	}

	variant := game.Variant().Name
	s.recorder.AnswerSubmitted(variant, outcome)
	s.scoreboard.Record(game.PlayerID, game.DisplayName, snap.Score)
	if snap.Status == domain.StatusGameOver {
		s.recorder.GameOver(variant, snap.Score)
		s.logger.Info("game over",
			zap.String("game_id", gameID),
			zap.String("player_id", game.PlayerID),
			zap.Int("score", snap.Score),
			zap.Int("answered", snap.Answered),
		)
	}
	return domain.AnswerResult{Outcome: outcome, Snapshot: snap}, nil
}

// Previous moves a manually navigated game one flag back.
func (s *GameService) Previous(_ context.Context, gameID string) (domain.Snapshot, error) {
	return s.apply(gameID, (*engine.Engine).GoToPrevious)
}

// Next moves a manually navigated game one flag forward.
func (s *GameService) Next(_ context.Context, gameID string) (domain.Snapshot, error) {
	return s.apply(gameID, (*engine.Engine).GoToNext)
}

// Restart resets a terminal game.
func (s *GameService) Restart(_ context.Context, gameID string) (domain.Snapshot, error) {
	snap, err := s.apply(gameID, (*engine.Engine).Restart)
	if err == nil {
		s.logger.Debug("game restarted", zap.String("game_id", gameID))
	}
	return snap, err
}

// End drops a game. Unknown IDs are ignored.
func (s *GameService) End(_ context.Context, gameID string) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return
	}
	s.sessions.Delete(gameID)
	s.recorder.GameEnded(game.Variant().Name)
	s.logger.Info("game ended", zap.String("game_id", gameID))
}

// ReapIdle ends every game the session store reports idle and returns how
// many it ended. Stores that do not track activity are left alone.
func (s *GameService) ReapIdle(ctx context.Context) int {
	lister, ok := s.sessions.(IdleLister)
	if !ok {
		return 0
	}
	ids := lister.Idle(ctx)
	for _, id := range ids {
		s.End(ctx, id)
	}
	if len(ids) > 0 {
		s.logger.Info("reaped idle games", zap.Int("count", len(ids)))
	}
	return len(ids)
}

// Scoreboard returns the best scores of all players.
func (s *GameService) Scoreboard(_ context.Context) domain.Scoreboard {
	return s.scoreboard.Snapshot()
}

// Subscribe returns a channel of scoreboard updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context) (<-chan domain.Scoreboard, func()) {
	return s.scoreboard.Subscribe()
}

func (s *GameService) apply(gameID string, op func(*engine.Engine) error) (domain.Snapshot, error) {
	game, err := s.game(gameID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	game.mu.Lock()
	defer game.mu.Unlock()
	if err := op(game.engine); err != nil {
		return domain.Snapshot{}, err
	}
	return game.snapshotLocked(), nil
}

func (s *GameService) game(gameID string) (*Game, error) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}
