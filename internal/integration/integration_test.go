package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/engine"
	pgloader "flag-quiz-service/internal/infra/postgres"
	pgmigrations "flag-quiz-service/internal/infra/postgres/migrations"
	infraredis "flag-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestPlayAgainstPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCatalogLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	catalogs := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute, nil)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute, nil)
	service := app.NewGameService(sessions, catalogs,
		app.WithRandSource(func() engine.Rand { return engine.NewRand(1) }),
	)

	for _, name := range []string{domain.DefaultCatalogName, "europe"} {
		catalog, err := catalogs.GetCatalog(ctx, name)
		if err != nil {
			t.Fatalf("catalog %s: %v", name, err)
		}
		if err := catalog.Validate(); err != nil {
			t.Fatalf("catalog %s invalid: %v", name, err)
		}
	}

	snap, err := service.Start(ctx, app.StartRequest{GameID: "g1", PlayerID: "u1", DisplayName: "Alice", Variant: "sequential"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.ImageRef != "uk.png" {
		t.Fatalf("expected catalog order from postgres, got %s", snap.ImageRef)
	}
	result, err := service.Answer(ctx, "g1", "UK")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if result.Outcome != domain.OutcomeCorrect || result.Snapshot.Score != 1 {
		t.Fatalf("expected correct answer with score 1, got %+v", result)
	}

	if n, err := redisClient.Exists(ctx, "flagquiz:game:g1").Result(); err != nil || n != 1 {
		t.Fatalf("expected liveness key, got %d %v", n, err)
	}
	service.End(ctx, "g1")
	if n, _ := redisClient.Exists(ctx, "flagquiz:game:g1").Result(); n != 0 {
		t.Fatalf("expected liveness key removed")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// migrateAndSeed applies the migrations (which seed the default catalog) and
// adds a second, smaller catalog.
func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	europe := domain.Catalog{
		{ImageRef: "france.png", Country: "France"},
		{ImageRef: "germany.png", Country: "Germany"},
		{ImageRef: "italy.png", Country: "Italy"},
		{ImageRef: "uk.png", Country: "UK"},
	}
	if err := pgmigrations.UpsertCatalog(ctx, db, "europe", europe); err != nil {
		t.Fatalf("seed europe: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
