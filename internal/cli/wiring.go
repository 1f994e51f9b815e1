package cli

import (
	"context"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/engine"
	"flag-quiz-service/internal/infra/memory"
	pgloader "flag-quiz-service/internal/infra/postgres"
	redisinfra "flag-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// runtime holds the wired service and the connections to close on exit.
type runtime struct {
	service *app.GameService
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildService wires storage according to cfg: Postgres for catalogs when a
// URL is set (after migrating), Redis for caching and liveness when an
// address is set, in-memory otherwise.
func buildService(ctx context.Context, cfg config.Config, logger *zap.Logger, recorder app.Recorder) (*runtime, error) {
	rt := &runtime{}

	variant, err := domain.ParseVariant(cfg.Game.Variant)
	if err != nil {
		return nil, err
	}

	var loader memory.CatalogLoader = memory.NewDefaultCatalogLoader()
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		loader = pgloader.NewCatalogLoader(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		catalogs = redisinfra.NewCatalogRepository(redisClient, loader, catalogTTL, logger)
		sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), logger)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
		sessions = memory.NewSessionStore(memory.WithIdleTTL(config.TTLDuration(cfg.Game.IdleTTL, 30*time.Minute)))
	}

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithDefaultVariant(variant),
	}
	if cfg.Catalog.Name != "" {
		opts = append(opts, app.WithDefaultCatalog(cfg.Catalog.Name))
	}
	if recorder != nil {
		opts = append(opts, app.WithRecorder(recorder))
	}
	if seed := cfg.Game.Seed; seed != 0 {
		var n int64
		opts = append(opts, app.WithRandSource(func() engine.Rand {
			n++
			return engine.NewRand(seed + n)
		}))
	}
	rt.service = app.NewGameService(sessions, catalogs, opts...)
	return rt, nil
}

// reapIdle ends idle games every interval until ctx is done.
func (r *runtime) reapIdle(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.service.ReapIdle(ctx)
		}
	}
}
