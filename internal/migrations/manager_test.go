package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/adityaaa08012006/decivue-sub004/internal/migrations"
)

func newSQLiteManager(t *testing.T) *migrations.Manager {
	t.Helper()
	m, err := migrations.NewManager(migrations.Config{
		Driver:  "sqlite",
		DSN:     "file:" + t.TempDir() + "/migrations.db?cache=shared&mode=rwc",
		Dialect: "sqlite",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_UpAppliesAllMigrations(t *testing.T) {
	m := newSQLiteManager(t)
	ctx := context.Background()

	require.NoError(t, m.Up(ctx))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, version)
}

func TestManager_DownToRollsBack(t *testing.T) {
	m := newSQLiteManager(t)
	ctx := context.Background()

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.DownTo(ctx, 1))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
}

func TestManager_HealthCheckAfterUp(t *testing.T) {
	m := newSQLiteManager(t)
	ctx := context.Background()

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.HealthCheck(ctx))
}
