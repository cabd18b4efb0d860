package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/metrics"
)

// pgExecutor is satisfied by both *pgxpool.Pool and pgx.Tx, letting every
// query method run unchanged whether or not it's inside a WithTx block.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// PostgresStore implements collaborators.Store against PostgreSQL via pgx.
type PostgresStore struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *metrics.StoreMetrics
}

// NewPostgresStore wraps an already-connected pgxpool.Pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger, m *metrics.StoreMetrics) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewStoreMetrics(metrics.DefaultRegistry().Namespace())
	}
	return &PostgresStore{pool: pool, logger: logger, metrics: m}
}

func (s *PostgresStore) exec(ctx context.Context) pgExecutor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *PostgresStore) observe(operation string, start time.Time, err error) {
	dur := time.Since(start).Seconds()
	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil && s.metrics.QueryDuration != nil {
		s.metrics.QueryDuration.WithLabelValues(operation, status).Observe(dur)
	}
}

// WithTx runs fn inside a single serializable-isolation transaction. A
// serialization-conflict error from Postgres bubbles out unwrapped so the
// caller's retry policy (internal/resilience.SerializationConflictChecker)
// can classify and retry it.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDecision(ctx context.Context, orgID, decisionID string) (*domain.Decision, error) {
	start := time.Now()
	row := s.exec(ctx).QueryRow(ctx, `
		SELECT id, organization, creator, title, description, category, parameters,
		       lifecycle, health_signal, invalidated_reason, created_at, last_reviewed_at,
		       last_evaluated_at, needs_evaluation, expiry_date, governance_mode, governance_tier,
		       requires_second_reviewer, edit_justification_required, locked_at, locked_by,
		       review_urgency_score, next_review_date, review_frequency_days,
		       consecutive_deferrals, urgency_factors
		FROM decisions WHERE organization = $1 AND id = $2`, orgID, decisionID)

	d, err := scanDecision(row)
	s.observe("get_decision", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) ListDecisionsNeedingEvaluation(ctx context.Context, orgID string, stalenessThreshold time.Duration, limit int) ([]domain.Decision, error) {
	start := time.Now()
	q := `
		SELECT id, organization, creator, title, description, category, parameters,
		       lifecycle, health_signal, invalidated_reason, created_at, last_reviewed_at,
		       last_evaluated_at, needs_evaluation, expiry_date, governance_mode, governance_tier,
		       requires_second_reviewer, edit_justification_required, locked_at, locked_by,
		       review_urgency_score, next_review_date, review_frequency_days,
		       consecutive_deferrals, urgency_factors
		FROM decisions
		WHERE organization = $1
		  AND lifecycle <> 'retired'
		  AND (needs_evaluation
		       OR last_evaluated_at IS NULL
		       OR last_evaluated_at < now() - $2::interval
		       OR (expiry_date IS NOT NULL AND expiry_date BETWEEN now() - interval '30 days' AND now() + interval '30 days'))`
	args := []any{orgID, stalenessThreshold.String()}
	if limit > 0 {
		q += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.exec(ctx).Query(ctx, q, args...)
	s.observe("list_decisions_needing_evaluation", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveDecision(ctx context.Context, d domain.Decision) error {
	start := time.Now()
	params, err := json.Marshal(d.Parameters)
	if err != nil {
		return err
	}
	factors, err := json.Marshal(d.UrgencyFactors)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx).Exec(ctx, `
		INSERT INTO decisions (
			id, organization, creator, title, description, category, parameters,
			lifecycle, health_signal, invalidated_reason, created_at, last_reviewed_at,
			last_evaluated_at, needs_evaluation, expiry_date, governance_mode, governance_tier,
			requires_second_reviewer, edit_justification_required, locked_at, locked_by,
			review_urgency_score, next_review_date, review_frequency_days,
			consecutive_deferrals, urgency_factors
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, category = EXCLUDED.category,
			parameters = EXCLUDED.parameters, lifecycle = EXCLUDED.lifecycle,
			health_signal = EXCLUDED.health_signal, invalidated_reason = EXCLUDED.invalidated_reason,
			last_reviewed_at = EXCLUDED.last_reviewed_at, last_evaluated_at = EXCLUDED.last_evaluated_at,
			needs_evaluation = EXCLUDED.needs_evaluation, expiry_date = EXCLUDED.expiry_date,
			governance_mode = EXCLUDED.governance_mode, governance_tier = EXCLUDED.governance_tier,
			requires_second_reviewer = EXCLUDED.requires_second_reviewer,
			edit_justification_required = EXCLUDED.edit_justification_required,
			locked_at = EXCLUDED.locked_at, locked_by = EXCLUDED.locked_by,
			review_urgency_score = EXCLUDED.review_urgency_score, next_review_date = EXCLUDED.next_review_date,
			review_frequency_days = EXCLUDED.review_frequency_days,
			consecutive_deferrals = EXCLUDED.consecutive_deferrals, urgency_factors = EXCLUDED.urgency_factors`,
		d.ID, d.Organization, d.Creator, d.Title, d.Description, d.Category, params,
		string(d.Lifecycle), d.HealthSignal, d.InvalidatedReason, d.CreatedAt, d.LastReviewedAt,
		d.LastEvaluatedAt, d.NeedsEvaluation, d.ExpiryDate, d.GovernanceMode, string(d.GovernanceTier),
		d.RequiresSecondReviewer, d.EditJustificationRequired, d.LockedAt, d.LockedBy,
		d.ReviewUrgencyScore, d.NextReviewDate, d.ReviewFrequencyDays,
		d.ConsecutiveDeferrals, factors)

	s.observe("save_decision", start, err)
	return err
}

func (s *PostgresStore) GetLinkedAssumptionIDs(ctx context.Context, orgID, decisionID string) ([]string, error) {
	return s.queryStrings(ctx, "get_linked_assumption_ids",
		`SELECT assumption_id FROM decision_assumptions WHERE organization = $1 AND decision_id = $2`,
		orgID, decisionID)
}

func (s *PostgresStore) GetAssumptions(ctx context.Context, orgID string, ids []string) ([]domain.Assumption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT id, organization, description, status, scope FROM assumptions
		WHERE organization = $1 AND id = ANY($2)`, orgID, ids)
	s.observe("get_assumptions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assumption
	for rows.Next() {
		var a domain.Assumption
		var status, scope string
		if err := rows.Scan(&a.ID, &a.Organization, &a.Description, &status, &scope); err != nil {
			return nil, err
		}
		a.Status, a.Scope = domain.AssumptionStatus(status), domain.AssumptionScope(scope)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetUniversalAssumptions(ctx context.Context, orgID string) ([]domain.Assumption, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT id, organization, description, status, scope FROM assumptions
		WHERE organization = $1 AND scope = 'universal'`, orgID)
	s.observe("get_universal_assumptions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assumption
	for rows.Next() {
		var a domain.Assumption
		var status, scope string
		if err := rows.Scan(&a.ID, &a.Organization, &a.Description, &status, &scope); err != nil {
			return nil, err
		}
		a.Status, a.Scope = domain.AssumptionStatus(status), domain.AssumptionScope(scope)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetLinkedConstraintIDs(ctx context.Context, orgID, decisionID string) ([]string, error) {
	return s.queryStrings(ctx, "get_linked_constraint_ids",
		`SELECT constraint_id FROM decision_constraints WHERE organization = $1 AND decision_id = $2`,
		orgID, decisionID)
}

func (s *PostgresStore) GetConstraints(ctx context.Context, orgID string, ids []string) ([]domain.Constraint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT id, organization, name, description, type, validation_spec, is_immutable
		FROM constraints WHERE organization = $1 AND id = ANY($2)`, orgID, ids)
	s.observe("get_constraints", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Constraint
	for rows.Next() {
		var c domain.Constraint
		var typ string
		if err := rows.Scan(&c.ID, &c.Organization, &c.Name, &c.Description, &typ, &c.ValidationSpec, &c.IsImmutable); err != nil {
			return nil, err
		}
		c.Type = domain.ConstraintType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetDependencies(ctx context.Context, orgID, decisionID string) ([]domain.DependencySnapshot, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT d.id, d.lifecycle, d.health_signal
		FROM dependency_edges e
		JOIN decisions d ON d.id = e.target AND d.organization = $1
		WHERE e.organization = $1 AND e.source = $2`, orgID, decisionID)
	s.observe("get_dependencies", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DependencySnapshot
	for rows.Next() {
		var snap domain.DependencySnapshot
		var lifecycle string
		if err := rows.Scan(&snap.DecisionID, &lifecycle, &snap.HealthSignal); err != nil {
			return nil, err
		}
		snap.Lifecycle = domain.Lifecycle(lifecycle)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetDependents(ctx context.Context, orgID, decisionID string) ([]string, error) {
	return s.queryStrings(ctx, "get_dependents",
		`SELECT source FROM dependency_edges WHERE organization = $1 AND target = $2`,
		orgID, decisionID)
}

func (s *PostgresStore) LinkDependency(ctx context.Context, edge domain.DependencyEdge) error {
	start := time.Now()
	var exists bool
	err := s.exec(ctx).QueryRow(ctx, `
		WITH RECURSIVE reach(id) AS (
			SELECT target FROM dependency_edges WHERE source = $1
			UNION
			SELECT e.target FROM dependency_edges e JOIN reach r ON e.source = r.id
		)
		SELECT EXISTS(SELECT 1 FROM reach WHERE id = $2)`, edge.Target, edge.Source).Scan(&exists)
	if err != nil {
		s.observe("link_dependency", start, err)
		return err
	}
	if exists {
		s.observe("link_dependency", start, ErrCyclicDependency)
		return ErrCyclicDependency
	}

	_, err = s.exec(ctx).Exec(ctx, `
		INSERT INTO dependency_edges (id, source, target) VALUES ($1, $2, $3)
		ON CONFLICT (source, target) DO NOTHING`, edge.ID, edge.Source, edge.Target)
	s.observe("link_dependency", start, err)
	return err
}

func (s *PostgresStore) UnlinkDependency(ctx context.Context, orgID, source, target string) error {
	start := time.Now()
	_, err := s.exec(ctx).Exec(ctx, `
		DELETE FROM dependency_edges WHERE organization = $1 AND source = $2 AND target = $3`,
		orgID, source, target)
	s.observe("unlink_dependency", start, err)
	return err
}

func (s *PostgresStore) AppendEvaluationHistory(ctx context.Context, rec domain.EvaluationHistory) error {
	start := time.Now()
	trace, err := json.Marshal(rec.Trace)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx).Exec(ctx, `
		INSERT INTO evaluation_history (id, decision_id, old_lifecycle, new_lifecycle, old_health,
			new_health, invalidated_reason, trace, triggered_by, evaluated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.DecisionID, string(rec.OldLifecycle), string(rec.NewLifecycle), rec.OldHealth,
		rec.NewHealth, rec.InvalidatedReason, trace, string(rec.TriggeredBy), rec.EvaluatedAt)
	s.observe("append_evaluation_history", start, err)
	return err
}

func (s *PostgresStore) AppendDecisionVersion(ctx context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error) {
	start := time.Now()
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return v, err
	}
	changed, err := json.Marshal(v.ChangedFields)
	if err != nil {
		return v, err
	}
	meta, err := json.Marshal(v.Metadata)
	if err != nil {
		return v, err
	}

	err = s.exec(ctx).QueryRow(ctx, `
		INSERT INTO decision_versions (id, decision_id, version_number, snapshot, change_type,
			change_summary, changed_fields, reviewer_comment, metadata, created_at)
		VALUES ($1, $2, COALESCE((SELECT MAX(version_number) + 1 FROM decision_versions WHERE decision_id = $2), 1),
			$3, $4, $5, $6, $7, $8, $9)
		RETURNING version_number`,
		v.ID, v.DecisionID, snapshot, string(v.ChangeType), v.ChangeSummary, changed, v.ReviewerComment,
		meta, v.CreatedAt).Scan(&v.VersionNumber)
	s.observe("append_decision_version", start, err)
	return v, err
}

func (s *PostgresStore) AppendRelationChange(ctx context.Context, c domain.DecisionRelationChange) error {
	start := time.Now()
	_, err := s.exec(ctx).Exec(ctx, `
		INSERT INTO decision_relation_changes (id, decision_id, relation_type, relation_id, action, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.DecisionID, string(c.RelationType), c.RelationID, string(c.Action), c.Reason, c.CreatedAt)
	s.observe("append_relation_change", start, err)
	return err
}

func (s *PostgresStore) AppendReview(ctx context.Context, r domain.DecisionReview) error {
	start := time.Now()
	_, err := s.exec(ctx).Exec(ctx, `
		INSERT INTO decision_reviews (id, decision_id, reviewer, review_type, comment, pre_lifecycle,
			post_lifecycle, pre_health, post_health, outcome, deferral_reason, next_review_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		r.ID, r.DecisionID, r.Reviewer, string(r.ReviewType), r.Comment, string(r.PreLifecycle),
		string(r.PostLifecycle), r.PreHealth, r.PostHealth, string(r.Outcome), r.DeferralReason,
		r.NextReviewDate, r.CreatedAt)
	s.observe("append_review", start, err)
	return err
}

func (s *PostgresStore) AppendGovernanceAuditEntry(ctx context.Context, e domain.GovernanceAuditEntry) (domain.GovernanceAuditEntry, error) {
	start := time.Now()
	proposed, err := json.Marshal(e.ProposedChanges)
	if err != nil {
		return e, err
	}
	prev, err := json.Marshal(e.PreviousState)
	if err != nil {
		return e, err
	}
	next, err := json.Marshal(e.NewState)
	if err != nil {
		return e, err
	}

	_, err = s.exec(ctx).Exec(ctx, `
		INSERT INTO governance_audit_entries (id, decision_id, action, requester, approver,
			justification, proposed_changes, previous_state, new_state, created_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.DecisionID, string(e.Action), e.Requester, e.Approver, e.Justification,
		proposed, prev, next, e.CreatedAt, e.ResolvedAt)
	s.observe("append_governance_audit_entry", start, err)
	return e, err
}

func (s *PostgresStore) ResolveGovernanceAuditEntry(ctx context.Context, e domain.GovernanceAuditEntry) error {
	start := time.Now()
	_, err := s.exec(ctx).Exec(ctx, `
		UPDATE governance_audit_entries SET approver = $1, resolved_at = $2 WHERE id = $3`,
		e.Approver, e.ResolvedAt, e.ID)
	s.observe("resolve_governance_audit_entry", start, err)
	return err
}

func (s *PostgresStore) GetGovernanceAuditEntry(ctx context.Context, orgID, id string) (*domain.GovernanceAuditEntry, error) {
	start := time.Now()
	row := s.exec(ctx).QueryRow(ctx, `
		SELECT e.id, e.decision_id, e.action, e.requester, e.approver, e.justification,
		       e.proposed_changes, e.previous_state, e.new_state, e.created_at, e.resolved_at
		FROM governance_audit_entries e
		JOIN decisions d ON d.id = e.decision_id
		WHERE d.organization = $1 AND e.id = $2`, orgID, id)

	e, err := scanGovernanceAuditEntry(row)
	s.observe("get_governance_audit_entry", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *PostgresStore) GetVersionHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionVersion, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT v.id, v.decision_id, v.version_number, v.snapshot, v.change_type, v.change_summary,
		       v.changed_fields, v.reviewer_comment, v.metadata, v.created_at
		FROM decision_versions v
		JOIN decisions d ON d.id = v.decision_id
		WHERE d.organization = $1 AND v.decision_id = $2
		ORDER BY v.version_number ASC`, orgID, decisionID)
	s.observe("get_version_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DecisionVersion
	for rows.Next() {
		var v domain.DecisionVersion
		var snapshot, changed, meta []byte
		var changeType string
		if err := rows.Scan(&v.ID, &v.DecisionID, &v.VersionNumber, &snapshot, &changeType,
			&v.ChangeSummary, &changed, &v.ReviewerComment, &meta, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.ChangeType = domain.ChangeType(changeType)
		if err := unmarshalIfPresent(snapshot, &v.Snapshot); err != nil {
			return nil, err
		}
		if err := unmarshalIfPresent(changed, &v.ChangedFields); err != nil {
			return nil, err
		}
		if err := unmarshalIfPresent(meta, &v.Metadata); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetRelationHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionRelationChange, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT c.id, c.decision_id, c.relation_type, c.relation_id, c.action, c.reason, c.created_at
		FROM decision_relation_changes c
		JOIN decisions d ON d.id = c.decision_id
		WHERE d.organization = $1 AND c.decision_id = $2
		ORDER BY c.created_at ASC`, orgID, decisionID)
	s.observe("get_relation_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DecisionRelationChange
	for rows.Next() {
		var c domain.DecisionRelationChange
		var relType, action string
		if err := rows.Scan(&c.ID, &c.DecisionID, &relType, &c.RelationID, &action, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.RelationType, c.Action = domain.RelationType(relType), domain.RelationAction(action)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetReviewHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionReview, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT r.id, r.decision_id, r.reviewer, r.review_type, r.comment, r.pre_lifecycle,
		       r.post_lifecycle, r.pre_health, r.post_health, r.outcome, r.deferral_reason,
		       r.next_review_date, r.created_at
		FROM decision_reviews r
		JOIN decisions d ON d.id = r.decision_id
		WHERE d.organization = $1 AND r.decision_id = $2
		ORDER BY r.created_at ASC`, orgID, decisionID)
	s.observe("get_review_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DecisionReview
	for rows.Next() {
		var r domain.DecisionReview
		var reviewType, preLifecycle, postLifecycle, outcome string
		if err := rows.Scan(&r.ID, &r.DecisionID, &r.Reviewer, &reviewType, &r.Comment, &preLifecycle,
			&postLifecycle, &r.PreHealth, &r.PostHealth, &outcome, &r.DeferralReason,
			&r.NextReviewDate, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ReviewType = domain.ReviewType(reviewType)
		r.PreLifecycle, r.PostLifecycle = domain.Lifecycle(preLifecycle), domain.Lifecycle(postLifecycle)
		r.Outcome = domain.ReviewOutcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetEvaluationHistory(ctx context.Context, orgID, decisionID string) ([]domain.EvaluationHistory, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT h.id, h.decision_id, h.old_lifecycle, h.new_lifecycle, h.old_health, h.new_health,
		       h.invalidated_reason, h.trace, h.triggered_by, h.evaluated_at
		FROM evaluation_history h
		JOIN decisions d ON d.id = h.decision_id
		WHERE d.organization = $1 AND h.decision_id = $2
		ORDER BY h.evaluated_at ASC`, orgID, decisionID)
	s.observe("get_evaluation_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EvaluationHistory
	for rows.Next() {
		h, err := scanEvaluationHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetUnresolvedAssumptionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.AssumptionConflict, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT id, assumption_id, decision_id, counterpart, resolved, raised_at, resolved_at
		FROM assumption_conflicts WHERE organization = $1 AND decision_id = $2 AND resolved = false`,
		orgID, decisionID)
	s.observe("get_unresolved_assumption_conflicts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AssumptionConflict
	for rows.Next() {
		var c domain.AssumptionConflict
		if err := rows.Scan(&c.ID, &c.AssumptionID, &c.DecisionID, &c.Counterpart, &c.Resolved, &c.RaisedAt, &c.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetUnresolvedDecisionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.DecisionConflict, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, `
		SELECT id, decision_id, counterpart, resolved, raised_at, resolved_at
		FROM decision_conflicts WHERE organization = $1 AND decision_id = $2 AND resolved = false`,
		orgID, decisionID)
	s.observe("get_unresolved_decision_conflicts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DecisionConflict
	for rows.Next() {
		var c domain.DecisionConflict
		if err := rows.Scan(&c.ID, &c.DecisionID, &c.Counterpart, &c.Resolved, &c.RaisedAt, &c.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountUnresolvedConflicts(ctx context.Context, orgID, decisionID string) (int, int, error) {
	start := time.Now()
	var assumptionConflicts, decisionConflicts int
	err := s.exec(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM assumption_conflicts WHERE organization = $1 AND decision_id = $2 AND resolved = false),
			(SELECT COUNT(*) FROM decision_conflicts WHERE organization = $1 AND decision_id = $2 AND resolved = false)`,
		orgID, decisionID).Scan(&assumptionConflicts, &decisionConflicts)
	s.observe("count_unresolved_conflicts", start, err)
	return assumptionConflicts, decisionConflicts, err
}

func (s *PostgresStore) queryStrings(ctx context.Context, operation, q string, args ...any) ([]string, error) {
	start := time.Now()
	rows, err := s.exec(ctx).Query(ctx, q, args...)
	s.observe(operation, start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// scannable is satisfied by both pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDecision(row scannable) (*domain.Decision, error) {
	var d domain.Decision
	var lifecycle, governanceTier string
	var params, factors []byte
	if err := row.Scan(
		&d.ID, &d.Organization, &d.Creator, &d.Title, &d.Description, &d.Category, &params,
		&lifecycle, &d.HealthSignal, &d.InvalidatedReason, &d.CreatedAt, &d.LastReviewedAt,
		&d.LastEvaluatedAt, &d.NeedsEvaluation, &d.ExpiryDate, &d.GovernanceMode, &governanceTier,
		&d.RequiresSecondReviewer, &d.EditJustificationRequired, &d.LockedAt, &d.LockedBy,
		&d.ReviewUrgencyScore, &d.NextReviewDate, &d.ReviewFrequencyDays,
		&d.ConsecutiveDeferrals, &factors,
	); err != nil {
		return nil, err
	}
	d.Lifecycle, d.GovernanceTier = domain.Lifecycle(lifecycle), domain.GovernanceTier(governanceTier)
	if err := unmarshalIfPresent(params, &d.Parameters); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent(factors, &d.UrgencyFactors); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanEvaluationHistoryRow(row scannable) (*domain.EvaluationHistory, error) {
	var h domain.EvaluationHistory
	var oldLifecycle, newLifecycle, triggeredBy string
	var trace []byte
	if err := row.Scan(&h.ID, &h.DecisionID, &oldLifecycle, &newLifecycle, &h.OldHealth, &h.NewHealth,
		&h.InvalidatedReason, &trace, &triggeredBy, &h.EvaluatedAt); err != nil {
		return nil, err
	}
	h.OldLifecycle, h.NewLifecycle = domain.Lifecycle(oldLifecycle), domain.Lifecycle(newLifecycle)
	h.TriggeredBy = domain.TriggerSource(triggeredBy)
	if err := unmarshalIfPresent(trace, &h.Trace); err != nil {
		return nil, err
	}
	return &h, nil
}

func scanGovernanceAuditEntry(row scannable) (*domain.GovernanceAuditEntry, error) {
	var e domain.GovernanceAuditEntry
	var action string
	var proposed, prev, next []byte
	if err := row.Scan(&e.ID, &e.DecisionID, &action, &e.Requester, &e.Approver, &e.Justification,
		&proposed, &prev, &next, &e.CreatedAt, &e.ResolvedAt); err != nil {
		return nil, err
	}
	e.Action = domain.GovernanceAction(action)
	if err := unmarshalIfPresent(proposed, &e.ProposedChanges); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent(prev, &e.PreviousState); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent(next, &e.NewState); err != nil {
		return nil, err
	}
	return &e, nil
}

func unmarshalIfPresent(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
