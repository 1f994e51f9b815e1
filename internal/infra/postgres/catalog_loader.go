package postgres

import (
	"context"
	"fmt"

	"flag-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads flag catalogs from the flags table.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context, name string) (domain.Catalog, error) {
	rows, err := l.pool.Query(ctx, `SELECT image_ref, country FROM flags WHERE catalog=$1 ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var catalog domain.Catalog
	for rows.Next() {
		var entry domain.FlagEntry
		if err := rows.Scan(&entry.ImageRef, &entry.Country); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		catalog = append(catalog, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, domain.ErrCatalogNotFound
	}
	return catalog, nil
}
