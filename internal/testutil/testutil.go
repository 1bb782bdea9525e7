package testutil

import (
	"database/sql"
	"testing"

	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/repository/postgres"
	"github.com/pratik-mahalle/emsdispatch/migrations"
)

// NewTestDB creates an in-memory SQLite database with the schema applied
func NewTestDB(t *testing.T) (*sql.DB, postgres.Dialect) {
	t.Helper()

	db, dialect, err := postgres.New(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   ":memory:",
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if _, err := postgres.RunMigrations(db, dialect, migrations.GetFS()); err != nil {
		db.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() { CleanupDB(db) })
	return db, dialect
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}

// NewTestLogger returns a logger that only emits errors
func NewTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}
