// Command sentinelctl is the operator CLI for the decision governance
// service: schema migrations and deployment diagnostics, kept out of
// cmd/server so routine operator tasks don't require shipping a whole
// server binary's worth of flags.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adityaaa08012006/decivue-sub004/internal/config"
	"github.com/adityaaa08012006/decivue-sub004/internal/migrations"
)

var configPath string

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "sentinelctl",
		Short: "Operator CLI for the decision governance service",
		Long:  "sentinelctl manages the schema migrations and reports diagnostics for a decision governance deployment.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	root.AddCommand(
		migrateCommand(logger),
		rollbackCommand(logger),
		statusCommand(logger),
		versionCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadManager(logger *slog.Logger) (*migrations.Manager, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dialect := "postgres"
	dsn := cfg.GetDatabaseURL()
	if cfg.UsesEmbeddedStorage() {
		dialect = "sqlite"
		dsn = "file:" + cfg.Storage.FilesystemPath
	}

	return migrations.NewManager(migrations.Config{
		Driver:  dialect,
		DSN:     dsn,
		Dialect: dialect,
		Logger:  logger,
	})
}

func migrateCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadManager(logger)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			return manager.Up(cmd.Context())
		},
	}
}

func rollbackCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recently applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadManager(logger)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			return manager.Down(cmd.Context())
		},
	}
}

func statusCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadManager(logger)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			if err := manager.HealthCheck(cmd.Context()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: health check failed: %v\n", err)
			}

			return manager.Status(cmd.Context())
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the currently applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
			manager, err := loadManager(logger)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			v, err := manager.Version(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}
}
