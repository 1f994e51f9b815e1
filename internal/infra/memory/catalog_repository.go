package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a flag catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, name string) (domain.Catalog, error)
}

// CatalogRepository caches catalogs with TTL to avoid repeated DB hits.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedCatalog
}

type cachedCatalog struct {
	catalog   domain.Catalog
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCatalog),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, name string) (domain.Catalog, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[name]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.catalog.Clone(), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(name, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[name]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.catalog, nil
		}
		r.mu.RUnlock()

		catalog, err := r.loader.LoadCatalog(ctx, name)
		if err != nil {
			return domain.Catalog(nil), err
		}

		r.mu.Lock()
		r.cache[name] = cachedCatalog{
			catalog:   catalog,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.Catalog).Clone(), nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticCatalogLoader struct {
	catalogs map[string]domain.Catalog
}

func NewStaticCatalogLoader(catalogs map[string]domain.Catalog) *StaticCatalogLoader {
	return &StaticCatalogLoader{catalogs: catalogs}
}

// NewDefaultCatalogLoader serves only the built-in catalog.
func NewDefaultCatalogLoader() *StaticCatalogLoader {
	return NewStaticCatalogLoader(map[string]domain.Catalog{
		domain.DefaultCatalogName: domain.DefaultCatalog(),
	})
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context, name string) (domain.Catalog, error) {
	if catalog, ok := l.catalogs[name]; ok {
		return catalog.Clone(), nil
	}
	return nil, domain.ErrCatalogNotFound
}
