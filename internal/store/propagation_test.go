package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openPropagationTestStore opens an isolated in-memory SQLite database and
// applies just the schema the propagation.Reader/Marker methods touch.
func openPropagationTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	s, err := OpenSQLiteStore(dsn, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	schema := []string{
		`CREATE TABLE decisions (
			id TEXT PRIMARY KEY,
			organization TEXT NOT NULL,
			lifecycle TEXT NOT NULL,
			needs_evaluation INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE decision_assumptions (
			organization TEXT NOT NULL,
			decision_id TEXT NOT NULL,
			assumption_id TEXT NOT NULL
		)`,
		`CREATE TABLE decision_constraints (
			organization TEXT NOT NULL,
			decision_id TEXT NOT NULL,
			constraint_id TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		_, err := s.db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	seed := []struct{ id, org, lifecycle string }{
		{"d1", "org1", "active"},
		{"d2", "org1", "active"},
		{"d3", "org1", "retired"},
		{"d4", "org2", "active"},
	}
	for _, d := range seed {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO decisions (id, organization, lifecycle, needs_evaluation) VALUES (?, ?, ?, 0)`,
			d.id, d.org, d.lifecycle)
		require.NoError(t, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_assumptions (organization, decision_id, assumption_id) VALUES
			('org1', 'd1', 'a1'), ('org1', 'd2', 'a1')`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_constraints (organization, decision_id, constraint_id) VALUES
			('org1', 'd1', 'c1')`)
	require.NoError(t, err)

	return s
}

func TestSQLiteStore_ListDecisionsLinkedToAssumption(t *testing.T) {
	s := openPropagationTestStore(t)

	ids, err := s.ListDecisionsLinkedToAssumption(context.Background(), "org1", "a1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d1", "d2"}, ids)
}

func TestSQLiteStore_ListDecisionsLinkedToConstraint(t *testing.T) {
	s := openPropagationTestStore(t)

	ids, err := s.ListDecisionsLinkedToConstraint(context.Background(), "org1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids)
}

func TestSQLiteStore_ListDecisionIDsInOrg(t *testing.T) {
	s := openPropagationTestStore(t)

	ids, err := s.ListDecisionIDsInOrg(context.Background(), "org1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d1", "d2", "d3"}, ids)
}

func TestSQLiteStore_GetDecisionLifecycle(t *testing.T) {
	s := openPropagationTestStore(t)

	lifecycle, err := s.GetDecisionLifecycle(context.Background(), "org1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "active", string(lifecycle))

	_, err = s.GetDecisionLifecycle(context.Background(), "org1", "missing")
	assert.Error(t, err)
}

func TestSQLiteStore_MarkDirty(t *testing.T) {
	s := openPropagationTestStore(t)
	ctx := context.Background()

	err := s.MarkDirty(ctx, "org1", []string{"d1", "d3"})
	require.NoError(t, err)

	assertNeedsEvaluation(t, s, "d1", 1)
	assertNeedsEvaluation(t, s, "d3", 0) // retired decisions never get resurrected
}

func TestSQLiteStore_MarkDirty_EmptyIsNoop(t *testing.T) {
	s := openPropagationTestStore(t)

	err := s.MarkDirty(context.Background(), "org1", nil)
	assert.NoError(t, err)
}

func assertNeedsEvaluation(t *testing.T, s *SQLiteStore, id string, want int) {
	t.Helper()
	var got int
	err := s.db.QueryRowContext(context.Background(), `SELECT needs_evaluation FROM decisions WHERE id = ?`, id).Scan(&got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
