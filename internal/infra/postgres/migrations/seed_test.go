package migrations

import (
	"testing"

	"flag-quiz-service/internal/domain"
)

func TestCatalogRowsKeepOrder(t *testing.T) {
	rows := CatalogRows(domain.DefaultCatalogName, domain.DefaultCatalog())
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.Position != i || row.Catalog != domain.DefaultCatalogName {
			t.Fatalf("row %d: unexpected %+v", i, row)
		}
	}
	if rows[8].Country != "France" || rows[8].ImageRef != "france.png" {
		t.Fatalf("expected France at 8, got %+v", rows[8])
	}
}

func TestMigrationsRegistered(t *testing.T) {
	if got := len(Migrations.Sorted()); got != 2 {
		t.Fatalf("expected 2 migrations, got %d", got)
	}
}
