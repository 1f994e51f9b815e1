package redis

import (
	"context"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{CatalogLoader: memory.NewDefaultCatalogLoader()}
	repo := NewCatalogRepository(client, loader, time.Minute, nil)

	catalog, err := repo.GetCatalog(context.Background(), domain.DefaultCatalogName)
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if got := mr.HGet("catalog:default:countries", "8"); got != "France" {
		t.Fatalf("expected France at position 8, got %q", got)
	}
	if mr.TTL("catalog:default:countries") <= 0 {
		t.Fatalf("expected ttl on cached catalog")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetCatalog(context.Background(), domain.DefaultCatalogName)
	if err != nil {
		t.Fatalf("get cached catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	for i := range catalog {
		if cached[i] != catalog[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, catalog[i], cached[i])
		}
	}
}

func TestCatalogRepositoryRefillsPartialCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet("catalog:default:countries", "0", "UK")
	mr.HSet("catalog:default:countries", "5", "Australia")

	loader := &countingLoader{CatalogLoader: memory.NewDefaultCatalogLoader()}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, nil)

	catalog, err := repo.GetCatalog(context.Background(), domain.DefaultCatalogName)
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 || len(catalog) != 12 {
		t.Fatalf("expected reload of full catalog, calls=%d len=%d", loader.calls, len(catalog))
	}
}

type countingLoader struct {
	memory.CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context, name string) (domain.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx, name)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
