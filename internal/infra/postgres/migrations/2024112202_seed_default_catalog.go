package migrations

import (
	"context"

	"flag-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

// FlagRow is the bun model of the flags table.
type FlagRow struct {
	bun.BaseModel `bun:"table:flags"`

	Catalog  string `bun:"catalog,pk"`
	Position int    `bun:"position,pk"`
	ImageRef string `bun:"image_ref,notnull"`
	Country  string `bun:"country,notnull"`
}

// CatalogRows converts a catalog into rows keyed by position.
func CatalogRows(name string, catalog domain.Catalog) []FlagRow {
	rows := make([]FlagRow, 0, len(catalog))
	for i, entry := range catalog {
		rows = append(rows, FlagRow{
			Catalog:  name,
			Position: i,
			ImageRef: entry.ImageRef,
			Country:  entry.Country,
		})
	}
	return rows
}

// UpsertCatalog writes catalog rows, replacing existing positions.
func UpsertCatalog(ctx context.Context, db bun.IDB, name string, catalog domain.Catalog) error {
	rows := CatalogRows(name, catalog)
	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (catalog, position) DO UPDATE").
		Set("image_ref = EXCLUDED.image_ref").
		Set("country = EXCLUDED.country").
		Exec(ctx)
	return err
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return UpsertCatalog(ctx, db, domain.DefaultCatalogName, domain.DefaultCatalog())
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDelete().
				Model((*FlagRow)(nil)).
				Where("catalog = ?", domain.DefaultCatalogName).
				Exec(ctx)
			return err
		},
	)
}
