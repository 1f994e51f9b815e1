package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a flag catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, name string) (domain.Catalog, error)
}

// CatalogRepository caches catalogs in Redis (two hashes per catalog keyed by
// position) and falls back to a loader on cache miss.
// Countries are stored as: HSET catalog:{name}:countries {position} {country}
// Images are stored as:    HSET catalog:{name}:images    {position} {imageRef}
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, name string) (domain.Catalog, error) {
	if catalog, ok := r.fromCache(ctx, name); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(name, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.fromCache(ctx, name); ok {
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx, name)
		if err != nil {
			return domain.Catalog(nil), err
		}

		countryKey, imageKey := r.countriesKey(name), r.imagesKey(name)
		ttl := r.ttlWithJitter()
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, countryKey, imageKey)
		for i, entry := range catalog {
			field := strconv.Itoa(i)
			pipe.HSet(ctx, countryKey, field, entry.Country)
			pipe.HSet(ctx, imageKey, field, entry.ImageRef)
		}
		if ttl > 0 {
			pipe.Expire(ctx, countryKey, ttl)
			pipe.Expire(ctx, imageKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Warn("cache catalog", zap.String("catalog", name), zap.Error(err))
		}
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.Catalog).Clone(), nil
}

func (r *CatalogRepository) fromCache(ctx context.Context, name string) (domain.Catalog, bool) {
	countries, err := r.client.HGetAll(ctx, r.countriesKey(name)).Result()
	if err != nil || len(countries) == 0 {
		return nil, false
	}
	images, err := r.client.HGetAll(ctx, r.imagesKey(name)).Result()
	if err != nil {
		return nil, false
	}
	catalog, ok := buildCatalogFromCache(countries, images)
	if !ok {
		return nil, false
	}
	return catalog, true
}

func (r *CatalogRepository) countriesKey(name string) string {
	return "catalog:" + name + ":countries"
}

func (r *CatalogRepository) imagesKey(name string) string {
	return "catalog:" + name + ":images"
}

// buildCatalogFromCache restores catalog order from the position fields. A
// partial or malformed entry reports a miss so the loader refills it.
func buildCatalogFromCache(countries, images map[string]string) (domain.Catalog, bool) {
	positions := make([]int, 0, len(countries))
	for field := range countries {
		pos, err := strconv.Atoi(field)
		if err != nil {
			return nil, false
		}
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	catalog := make(domain.Catalog, 0, len(positions))
	for i, pos := range positions {
		if pos != i {
			return nil, false
		}
		field := strconv.Itoa(pos)
		image, ok := images[field]
		if !ok {
			return nil, false
		}
		catalog = append(catalog, domain.FlagEntry{ImageRef: image, Country: countries[field]})
	}
	return catalog, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
