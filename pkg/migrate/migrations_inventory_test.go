package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/fulfillz-backend/pkg/migrate"
)

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_inventory_items.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no inventory migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"PRIMARY KEY (variant_id, location_id)",
		"FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE",
		"CHECK (available_qty >= 0)",
		"CHECK (committed_qty >= 0)",
		"DROP TABLE IF EXISTS inventory_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestIdempotencyGuardIndexesPresent(t *testing.T) {
	cases := []struct {
		file  string
		index string
	}{
		{"*_create_inventory_reservations.sql", "CREATE UNIQUE INDEX IF NOT EXISTS ux_inventory_reservations_active_line"},
		{"*_create_saga_executions.sql", "CREATE UNIQUE INDEX IF NOT EXISTS ux_saga_executions_open"},
		{"*_create_low_stock_alerts.sql", "ux_low_stock_alerts_active"},
	}

	for _, tc := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", tc.file))
		if err != nil || len(matches) == 0 {
			t.Fatalf("migration %s not found: %v", tc.file, err)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		if !strings.Contains(string(data), tc.index) {
			t.Errorf("%s missing %q", matches[0], tc.index)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
