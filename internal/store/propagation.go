package store

import (
	"context"
	"fmt"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

// The propagation coordinator (internal/propagation) needs a narrower read
// surface than collaborators.Store exposes, plus an idempotent dirty-flag
// writer. Both backends implement propagation.Reader and propagation.Marker
// directly so the coordinator can be built over either without an
// adapter type.

func (s *SQLiteStore) ListDecisionsLinkedToAssumption(ctx context.Context, orgID, assumptionID string) ([]string, error) {
	return s.queryStrings(ctx, "list_decisions_linked_to_assumption",
		`SELECT decision_id FROM decision_assumptions WHERE organization = ? AND assumption_id = ?`,
		orgID, assumptionID)
}

func (s *SQLiteStore) ListDecisionIDsInOrg(ctx context.Context, orgID string) ([]string, error) {
	return s.queryStrings(ctx, "list_decision_ids_in_org",
		`SELECT id FROM decisions WHERE organization = ?`, orgID)
}

func (s *SQLiteStore) ListDecisionsLinkedToConstraint(ctx context.Context, orgID, constraintID string) ([]string, error) {
	return s.queryStrings(ctx, "list_decisions_linked_to_constraint",
		`SELECT decision_id FROM decision_constraints WHERE organization = ? AND constraint_id = ?`,
		orgID, constraintID)
}

func (s *SQLiteStore) GetDecisionLifecycle(ctx context.Context, orgID, decisionID string) (domain.Lifecycle, error) {
	var lifecycle string
	start := time.Now()
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT lifecycle FROM decisions WHERE organization = ? AND id = ?`, orgID, decisionID,
	).Scan(&lifecycle)
	s.observe("get_decision_lifecycle", start, err)
	if err != nil {
		return "", fmt.Errorf("store: get decision lifecycle: %w", err)
	}
	return domain.Lifecycle(lifecycle), nil
}

// MarkDirty idempotently sets needsEvaluation=true on every decision in
// decisionIDs, skipping any already Retired (the coordinator's caller must
// never resurrect a terminal decision into the evaluation queue).
func (s *SQLiteStore) MarkDirty(ctx context.Context, orgID string, decisionIDs []string) error {
	if len(decisionIDs) == 0 {
		return nil
	}
	start := time.Now()
	q, args := inClauseQuery(`UPDATE decisions SET needs_evaluation = 1 WHERE organization = ? AND lifecycle != 'retired' AND id IN (%s)`, orgID, decisionIDs)
	_, err := s.exec(ctx).ExecContext(ctx, q, args...)
	s.observe("mark_dirty", start, err)
	return err
}

func (s *PostgresStore) ListDecisionsLinkedToAssumption(ctx context.Context, orgID, assumptionID string) ([]string, error) {
	return s.queryStrings(ctx, "list_decisions_linked_to_assumption",
		`SELECT decision_id FROM decision_assumptions WHERE organization = $1 AND assumption_id = $2`,
		orgID, assumptionID)
}

func (s *PostgresStore) ListDecisionIDsInOrg(ctx context.Context, orgID string) ([]string, error) {
	return s.queryStrings(ctx, "list_decision_ids_in_org",
		`SELECT id FROM decisions WHERE organization = $1`, orgID)
}

func (s *PostgresStore) ListDecisionsLinkedToConstraint(ctx context.Context, orgID, constraintID string) ([]string, error) {
	return s.queryStrings(ctx, "list_decisions_linked_to_constraint",
		`SELECT decision_id FROM decision_constraints WHERE organization = $1 AND constraint_id = $2`,
		orgID, constraintID)
}

func (s *PostgresStore) GetDecisionLifecycle(ctx context.Context, orgID, decisionID string) (domain.Lifecycle, error) {
	var lifecycle string
	start := time.Now()
	err := s.exec(ctx).QueryRow(ctx,
		`SELECT lifecycle FROM decisions WHERE organization = $1 AND id = $2`, orgID, decisionID,
	).Scan(&lifecycle)
	s.observe("get_decision_lifecycle", start, err)
	if err != nil {
		return "", fmt.Errorf("store: get decision lifecycle: %w", err)
	}
	return domain.Lifecycle(lifecycle), nil
}

func (s *PostgresStore) MarkDirty(ctx context.Context, orgID string, decisionIDs []string) error {
	if len(decisionIDs) == 0 {
		return nil
	}
	start := time.Now()
	_, err := s.exec(ctx).Exec(ctx,
		`UPDATE decisions SET needs_evaluation = true WHERE organization = $1 AND lifecycle != 'retired' AND id = ANY($2)`,
		orgID, decisionIDs)
	s.observe("mark_dirty", start, err)
	return err
}
