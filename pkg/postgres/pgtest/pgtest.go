// Package pgtest opens the integration-test database. Tests that use it are
// skipped unless TEST_DATABASE_URL is set.
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/dwikikusuma/freshcart/pkg/postgres"
)

const envURL = "TEST_DATABASE_URL"

// Open connects to TEST_DATABASE_URL and applies the up migrations.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(envURL)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", envURL)
	}

	db, err := postgres.Open(postgres.Config{URL: url})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrate(t, db)
	return db
}

func migrate(t *testing.T, db *sql.DB) {
	t.Helper()

	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	for _, f := range files {
		body, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.ExecContext(context.Background(), string(body)); err != nil {
			t.Fatalf("apply %s: %v", filepath.Base(f), err)
		}
	}
}

// migrationsDir walks up from the test's working directory to the module root.
func migrationsDir(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("module root not found")
		}
		dir = parent
	}
}

// InsertProduct adds a sellable product and returns its id.
func InsertProduct(t *testing.T, db *sql.DB, name, price string) string {
	t.Helper()

	var id string
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`, name, price,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

// InsertAddress adds an address for userID and returns its id.
func InsertAddress(t *testing.T, db *sql.DB, userID string, isDefault bool) string {
	t.Helper()

	var id string
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO addresses (user_id, line1, city, postal_code, is_default)
		VALUES ($1, '1 Main St', 'Springfield', '12345', $2)
		RETURNING id`, userID, isDefault,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert address: %v", err)
	}
	return id
}
