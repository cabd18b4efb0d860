// Package migrations wraps goose to apply and inspect the schema that
// backs internal/store, for both the standard (Postgres) and lite
// (SQLite) deployment profiles.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// Config configures the migration runner for one deployment profile.
type Config struct {
	Driver  string `env:"MIGRATION_DRIVER" default:"postgres"`
	DSN     string `env:"MIGRATION_DSN" default:""`
	Dialect string `env:"MIGRATION_DIALECT" default:"postgres"`

	Table string `env:"MIGRATION_TABLE" default:"goose_db_version"`

	Timeout    time.Duration `env:"MIGRATION_TIMEOUT" default:"5m"`
	MaxRetries int           `env:"MIGRATION_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `env:"MIGRATION_RETRY_DELAY" default:"5s"`

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Dialect == "" {
		c.Dialect = "postgres"
	}
	if c.Table == "" {
		c.Table = "goose_db_version"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	return c
}

// Manager drives schema migrations for a single database connection.
// Every call sets goose's package-level dialect and embedded filesystem
// before acting, so a process that migrates both a Postgres and a
// SQLite target (e.g. during a lite-to-standard migration rehearsal)
// does not leak dialect state between the two.
type Manager struct {
	config Config
	db     *sql.DB
	dir    string
	logger *slog.Logger
}

// NewManager opens a migration-dedicated connection and selects the
// embedded migration set matching cfg.Dialect ("postgres" or "sqlite").
func NewManager(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	return &Manager{config: cfg, db: db, dir: "migrations", logger: logger}, nil
}

// Close releases the underlying connection.
func (m *Manager) Close() error {
	return m.db.Close()
}

// prepare points goose at this manager's dialect and embedded SQL set.
// goose keeps this as process-global state, so callers must not run two
// Managers for different dialects concurrently on the same process.
func (m *Manager) prepare() error {
	switch m.config.Dialect {
	case "sqlite", "sqlite3":
		goose.SetBaseFS(sqliteFS)
		m.dir = "sqlite"
		if err := goose.SetDialect("sqlite3"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
	default:
		goose.SetBaseFS(postgresFS)
		m.dir = "postgres"
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
	}
	return nil
}

// Up applies every migration that has not yet been recorded as applied.
func (m *Manager) Up(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	start := time.Now()
	if err := goose.UpContext(ctx, m.db, m.dir); err != nil {
		m.logger.Error("migration up failed", "error", err)
		return fmt.Errorf("apply migrations: %w", err)
	}
	m.logger.Info("migrations applied", "duration", time.Since(start), "dialect", m.config.Dialect)
	return nil
}

// UpTo applies migrations up to and including the given version.
func (m *Manager) UpTo(ctx context.Context, version int64) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.UpToContext(ctx, m.db, m.dir, version); err != nil {
		return fmt.Errorf("apply migrations up to version %d: %w", version, err)
	}
	return nil
}

// UpByOne applies exactly one pending migration.
func (m *Manager) UpByOne(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.UpByOneContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("apply next migration: %w", err)
	}
	return nil
}

// Down rolls back exactly one applied migration.
func (m *Manager) Down(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// DownTo rolls back every migration applied after the given version.
func (m *Manager) DownTo(ctx context.Context, version int64) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.DownToContext(ctx, m.db, m.dir, version); err != nil {
		return fmt.Errorf("rollback to version %d: %w", version, err)
	}
	return nil
}

// Status logs the applied/pending state of every migration.
func (m *Manager) Status(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// Version returns the current applied migration version.
func (m *Manager) Version(ctx context.Context) (int64, error) {
	if err := m.prepare(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	return v, nil
}

// HealthCheck verifies the migration connection and version table.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("migration connection: %w", err)
	}
	if _, err := m.Version(ctx); err != nil {
		return fmt.Errorf("migration table unreachable: %w", err)
	}
	return nil
}
