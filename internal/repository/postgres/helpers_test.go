package postgres

import (
	"database/sql"
	"testing"

	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/migrations"
)

func newTestDB(t *testing.T) (*sql.DB, Dialect) {
	t.Helper()

	db, dialect, err := New(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := RunMigrations(db, dialect, migrations.GetFS()); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return db, dialect
}
