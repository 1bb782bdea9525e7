// Command migrate applies pending schema migrations and lists applied ones.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/repository/postgres"
	"github.com/pratik-mahalle/emsdispatch/migrations"
)

func main() {
	status := flag.Bool("status", false, "list applied migrations without running pending ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
	})

	db, dialect, err := postgres.New(cfg.Database)
	if err != nil {
		logger.ErrorWithErr(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if !*status {
		ran, err := postgres.RunMigrations(db, dialect, migrations.GetFS())
		if err != nil {
			logger.ErrorWithErr(err, "Migration failed")
			os.Exit(1)
		}
		if len(ran) == 0 {
			logger.Info("No pending migrations")
		}
		for _, name := range ran {
			logger.Info("Applied migration " + name)
		}
	}

	applied, err := postgres.AppliedMigrations(db)
	if err != nil {
		logger.ErrorWithErr(err, "Failed to read applied migrations")
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("%d migrations applied: %s", len(applied), strings.Join(applied, ", ")))
}
