// Command migrate applies or inspects the schema migrations for whichever
// deployment profile's database is configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/adityaaa08012006/decivue-sub004/internal/config"
	"github.com/adityaaa08012006/decivue-sub004/internal/migrations"
)

func main() {
	var configPath = flag.String("config", "", "Path to YAML configuration file")
	var down = flag.Bool("down", false, "Roll back the most recent migration instead of applying pending ones")
	var status = flag.Bool("status", false, "Print migration status and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	dialect := "postgres"
	dsn := cfg.GetDatabaseURL()
	if cfg.UsesEmbeddedStorage() {
		dialect = "sqlite"
		dsn = "file:" + cfg.Storage.FilesystemPath
	}

	manager, err := migrations.NewManager(migrations.Config{
		Driver:  dialect,
		DSN:     dsn,
		Dialect: dialect,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("build migration manager", "error", err)
		os.Exit(1)
	}
	defer func() { _ = manager.Close() }()

	ctx := context.Background()

	switch {
	case *status:
		if err := manager.Status(ctx); err != nil {
			logger.Error("migration status", "error", err)
			os.Exit(1)
		}
	case *down:
		if err := manager.Down(ctx); err != nil {
			logger.Error("migration rollback failed", "error", err)
			os.Exit(1)
		}
	default:
		if err := manager.Up(ctx); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("migrations applied")
	}
}
