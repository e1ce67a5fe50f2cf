package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Efi-kline/my-phone-shop/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestCartsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_carts_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CREATE TABLE IF NOT EXISTS cart_items",
		"version BIGINT NOT NULL DEFAULT 1",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponsMigrationSeedsCodes(t *testing.T) {
	content := readMigration(t, "*_create_coupons_table.sql")

	for _, code := range []string{"WELCOME10", "VIP25", "SAVE50", "TRADEIN500"} {
		if !strings.Contains(content, code) {
			t.Errorf("missing seeded coupon %q", code)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
