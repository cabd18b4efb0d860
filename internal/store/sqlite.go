package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/metrics"
)

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteTxKey struct{}

// SQLiteStore implements collaborators.Store against an embedded SQLite
// database, for the lite deployment profile (single node, no external
// Postgres/Redis dependency).
type SQLiteStore struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *metrics.StoreMetrics
}

// OpenSQLiteStore opens (creating if necessary) the SQLite file at path
// with WAL mode and foreign keys enabled.
func OpenSQLiteStore(path string, logger *slog.Logger, m *metrics.StoreMetrics) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewStoreMetrics(metrics.DefaultRegistry().Namespace())
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &SQLiteStore{db: db, logger: logger, metrics: m}, nil
}

func (s *SQLiteStore) exec(ctx context.Context) sqlExecutor {
	if tx, ok := ctx.Value(sqliteTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *SQLiteStore) observe(operation string, start time.Time, err error) {
	if s.metrics == nil || s.metrics.QueryDuration == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.QueryDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// Close releases the underlying *sql.DB.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	txCtx := context.WithValue(ctx, sqliteTxKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetDecision(ctx context.Context, orgID, decisionID string) (*domain.Decision, error) {
	start := time.Now()
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, organization, creator, title, description, category, parameters,
		       lifecycle, health_signal, invalidated_reason, created_at, last_reviewed_at,
		       last_evaluated_at, needs_evaluation, expiry_date, governance_mode, governance_tier,
		       requires_second_reviewer, edit_justification_required, locked_at, locked_by,
		       review_urgency_score, next_review_date, review_frequency_days,
		       consecutive_deferrals, urgency_factors
		FROM decisions WHERE organization = ? AND id = ?`, orgID, decisionID)

	d, err := scanDecisionSQLite(row)
	s.observe("get_decision", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *SQLiteStore) ListDecisionsNeedingEvaluation(ctx context.Context, orgID string, stalenessThreshold time.Duration, limit int) ([]domain.Decision, error) {
	start := time.Now()
	staleCutoff := time.Now().Add(-stalenessThreshold)
	now := time.Now()
	expiryFrom, expiryTo := now.Add(-30*24*time.Hour), now.Add(30*24*time.Hour)

	q := `
		SELECT id, organization, creator, title, description, category, parameters,
		       lifecycle, health_signal, invalidated_reason, created_at, last_reviewed_at,
		       last_evaluated_at, needs_evaluation, expiry_date, governance_mode, governance_tier,
		       requires_second_reviewer, edit_justification_required, locked_at, locked_by,
		       review_urgency_score, next_review_date, review_frequency_days,
		       consecutive_deferrals, urgency_factors
		FROM decisions
		WHERE organization = ?
		  AND lifecycle <> 'retired'
		  AND (needs_evaluation = 1
		       OR last_evaluated_at IS NULL
		       OR last_evaluated_at < ?
		       OR (expiry_date IS NOT NULL AND expiry_date BETWEEN ? AND ?))`
	args := []any{orgID, staleCutoff, expiryFrom, expiryTo}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.exec(ctx).QueryContext(ctx, q, args...)
	s.observe("list_decisions_needing_evaluation", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecisionSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveDecision(ctx context.Context, d domain.Decision) error {
	start := time.Now()
	params, err := json.Marshal(d.Parameters)
	if err != nil {
		return err
	}
	factors, err := json.Marshal(d.UrgencyFactors)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT INTO decisions (
			id, organization, creator, title, description, category, parameters,
			lifecycle, health_signal, invalidated_reason, created_at, last_reviewed_at,
			last_evaluated_at, needs_evaluation, expiry_date, governance_mode, governance_tier,
			requires_second_reviewer, edit_justification_required, locked_at, locked_by,
			review_urgency_score, next_review_date, review_frequency_days,
			consecutive_deferrals, urgency_factors
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, description = excluded.description, category = excluded.category,
			parameters = excluded.parameters, lifecycle = excluded.lifecycle,
			health_signal = excluded.health_signal, invalidated_reason = excluded.invalidated_reason,
			last_reviewed_at = excluded.last_reviewed_at, last_evaluated_at = excluded.last_evaluated_at,
			needs_evaluation = excluded.needs_evaluation, expiry_date = excluded.expiry_date,
			governance_mode = excluded.governance_mode, governance_tier = excluded.governance_tier,
			requires_second_reviewer = excluded.requires_second_reviewer,
			edit_justification_required = excluded.edit_justification_required,
			locked_at = excluded.locked_at, locked_by = excluded.locked_by,
			review_urgency_score = excluded.review_urgency_score, next_review_date = excluded.next_review_date,
			review_frequency_days = excluded.review_frequency_days,
			consecutive_deferrals = excluded.consecutive_deferrals, urgency_factors = excluded.urgency_factors`,
		d.ID, d.Organization, d.Creator, d.Title, d.Description, d.Category, string(params),
		string(d.Lifecycle), d.HealthSignal, d.InvalidatedReason, d.CreatedAt, d.LastReviewedAt,
		d.LastEvaluatedAt, d.NeedsEvaluation, d.ExpiryDate, d.GovernanceMode, string(d.GovernanceTier),
		d.RequiresSecondReviewer, d.EditJustificationRequired, d.LockedAt, d.LockedBy,
		d.ReviewUrgencyScore, d.NextReviewDate, d.ReviewFrequencyDays,
		d.ConsecutiveDeferrals, string(factors))

	s.observe("save_decision", start, err)
	return err
}

func (s *SQLiteStore) GetLinkedAssumptionIDs(ctx context.Context, orgID, decisionID string) ([]string, error) {
	return s.queryStrings(ctx, "get_linked_assumption_ids",
		`SELECT assumption_id FROM decision_assumptions WHERE organization = ? AND decision_id = ?`,
		orgID, decisionID)
}

func (s *SQLiteStore) GetAssumptions(ctx context.Context, orgID string, ids []string) ([]domain.Assumption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	q, args := inClauseQuery(`SELECT id, organization, description, status, scope FROM assumptions WHERE organization = ? AND id IN (%s)`, orgID, ids)
	rows, err := s.exec(ctx).QueryContext(ctx, q, args...)
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

func (s *SQLiteStore) GetUniversalAssumptions(ctx context.Context, orgID string) ([]domain.Assumption, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, organization, description, status, scope FROM assumptions
		WHERE organization = ? AND scope = 'universal'`, orgID)
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

func (s *SQLiteStore) GetLinkedConstraintIDs(ctx context.Context, orgID, decisionID string) ([]string, error) {
	return s.queryStrings(ctx, "get_linked_constraint_ids",
		`SELECT constraint_id FROM decision_constraints WHERE organization = ? AND decision_id = ?`,
		orgID, decisionID)
}

func (s *SQLiteStore) GetConstraints(ctx context.Context, orgID string, ids []string) ([]domain.Constraint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	q, args := inClauseQuery(`SELECT id, organization, name, description, type, validation_spec, is_immutable FROM constraints WHERE organization = ? AND id IN (%s)`, orgID, ids)
	rows, err := s.exec(ctx).QueryContext(ctx, q, args...)
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

func (s *SQLiteStore) GetDependencies(ctx context.Context, orgID, decisionID string) ([]domain.DependencySnapshot, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT d.id, d.lifecycle, d.health_signal
		FROM dependency_edges e
		JOIN decisions d ON d.id = e.target AND d.organization = ?
		WHERE e.organization = ? AND e.source = ?`, orgID, orgID, decisionID)
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

func (s *SQLiteStore) GetDependents(ctx context.Context, orgID, decisionID string) ([]string, error) {
	return s.queryStrings(ctx, "get_dependents",
		`SELECT source FROM dependency_edges WHERE organization = ? AND target = ?`,
		orgID, decisionID)
}

func (s *SQLiteStore) LinkDependency(ctx context.Context, edge domain.DependencyEdge) error {
	start := time.Now()
	var exists bool
	err := s.exec(ctx).QueryRowContext(ctx, `
		WITH RECURSIVE reach(id) AS (
			SELECT target FROM dependency_edges WHERE source = ?
			UNION
			SELECT e.target FROM dependency_edges e JOIN reach r ON e.source = r.id
		)
		SELECT EXISTS(SELECT 1 FROM reach WHERE id = ?)`, edge.Target, edge.Source).Scan(&exists)
	if err != nil {
		s.observe("link_dependency", start, err)
		return err
	}
	if exists {
		s.observe("link_dependency", start, ErrCyclicDependency)
		return ErrCyclicDependency
	}

	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT OR IGNORE INTO dependency_edges (id, source, target) VALUES (?, ?, ?)`,
		edge.ID, edge.Source, edge.Target)
	s.observe("link_dependency", start, err)
	return err
}

func (s *SQLiteStore) UnlinkDependency(ctx context.Context, orgID, source, target string) error {
	start := time.Now()
	_, err := s.exec(ctx).ExecContext(ctx, `
		DELETE FROM dependency_edges WHERE organization = ? AND source = ? AND target = ?`,
		orgID, source, target)
	s.observe("unlink_dependency", start, err)
	return err
}

func (s *SQLiteStore) AppendEvaluationHistory(ctx context.Context, rec domain.EvaluationHistory) error {
	start := time.Now()
	trace, err := json.Marshal(rec.Trace)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT INTO evaluation_history (id, decision_id, old_lifecycle, new_lifecycle, old_health,
			new_health, invalidated_reason, trace, triggered_by, evaluated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.DecisionID, string(rec.OldLifecycle), string(rec.NewLifecycle), rec.OldHealth,
		rec.NewHealth, rec.InvalidatedReason, string(trace), string(rec.TriggeredBy), rec.EvaluatedAt)
	s.observe("append_evaluation_history", start, err)
	return err
}

func (s *SQLiteStore) AppendDecisionVersion(ctx context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error) {
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

	err = s.exec(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number) + 1, 1) FROM decision_versions WHERE decision_id = ?`,
		v.DecisionID).Scan(&v.VersionNumber)
	if err != nil {
		s.observe("append_decision_version", start, err)
		return v, err
	}

	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT INTO decision_versions (id, decision_id, version_number, snapshot, change_type,
			change_summary, changed_fields, reviewer_comment, metadata, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		v.ID, v.DecisionID, v.VersionNumber, string(snapshot), string(v.ChangeType), v.ChangeSummary,
		string(changed), v.ReviewerComment, string(meta), v.CreatedAt)
	s.observe("append_decision_version", start, err)
	return v, err
}

func (s *SQLiteStore) AppendRelationChange(ctx context.Context, c domain.DecisionRelationChange) error {
	start := time.Now()
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO decision_relation_changes (id, decision_id, relation_type, relation_id, action, reason, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.DecisionID, string(c.RelationType), c.RelationID, string(c.Action), c.Reason, c.CreatedAt)
	s.observe("append_relation_change", start, err)
	return err
}

func (s *SQLiteStore) AppendReview(ctx context.Context, r domain.DecisionReview) error {
	start := time.Now()
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO decision_reviews (id, decision_id, reviewer, review_type, comment, pre_lifecycle,
			post_lifecycle, pre_health, post_health, outcome, deferral_reason, next_review_date, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.DecisionID, r.Reviewer, string(r.ReviewType), r.Comment, string(r.PreLifecycle),
		string(r.PostLifecycle), r.PreHealth, r.PostHealth, string(r.Outcome), r.DeferralReason,
		r.NextReviewDate, r.CreatedAt)
	s.observe("append_review", start, err)
	return err
}

func (s *SQLiteStore) AppendGovernanceAuditEntry(ctx context.Context, e domain.GovernanceAuditEntry) (domain.GovernanceAuditEntry, error) {
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

	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT INTO governance_audit_entries (id, decision_id, action, requester, approver,
			justification, proposed_changes, previous_state, new_state, created_at, resolved_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.DecisionID, string(e.Action), e.Requester, e.Approver, e.Justification,
		string(proposed), string(prev), string(next), e.CreatedAt, e.ResolvedAt)
	s.observe("append_governance_audit_entry", start, err)
	return e, err
}

func (s *SQLiteStore) ResolveGovernanceAuditEntry(ctx context.Context, e domain.GovernanceAuditEntry) error {
	start := time.Now()
	_, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE governance_audit_entries SET approver = ?, resolved_at = ? WHERE id = ?`,
		e.Approver, e.ResolvedAt, e.ID)
	s.observe("resolve_governance_audit_entry", start, err)
	return err
}

func (s *SQLiteStore) GetGovernanceAuditEntry(ctx context.Context, orgID, id string) (*domain.GovernanceAuditEntry, error) {
	start := time.Now()
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT e.id, e.decision_id, e.action, e.requester, e.approver, e.justification,
		       e.proposed_changes, e.previous_state, e.new_state, e.created_at, e.resolved_at
		FROM governance_audit_entries e
		JOIN decisions d ON d.id = e.decision_id
		WHERE d.organization = ? AND e.id = ?`, orgID, id)

	e, err := scanGovernanceAuditEntrySQLite(row)
	s.observe("get_governance_audit_entry", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *SQLiteStore) GetVersionHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionVersion, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT v.id, v.decision_id, v.version_number, v.snapshot, v.change_type, v.change_summary,
		       v.changed_fields, v.reviewer_comment, v.metadata, v.created_at
		FROM decision_versions v
		JOIN decisions d ON d.id = v.decision_id
		WHERE d.organization = ? AND v.decision_id = ?
		ORDER BY v.version_number ASC`, orgID, decisionID)
	s.observe("get_version_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DecisionVersion
	for rows.Next() {
		var v domain.DecisionVersion
		var snapshot, changed, meta string
		var changeType string
		if err := rows.Scan(&v.ID, &v.DecisionID, &v.VersionNumber, &snapshot, &changeType,
			&v.ChangeSummary, &changed, &v.ReviewerComment, &meta, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.ChangeType = domain.ChangeType(changeType)
		if err := unmarshalIfPresent([]byte(snapshot), &v.Snapshot); err != nil {
			return nil, err
		}
		if err := unmarshalIfPresent([]byte(changed), &v.ChangedFields); err != nil {
			return nil, err
		}
		if err := unmarshalIfPresent([]byte(meta), &v.Metadata); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetRelationHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionRelationChange, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT c.id, c.decision_id, c.relation_type, c.relation_id, c.action, c.reason, c.created_at
		FROM decision_relation_changes c
		JOIN decisions d ON d.id = c.decision_id
		WHERE d.organization = ? AND c.decision_id = ?
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

func (s *SQLiteStore) GetReviewHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionReview, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT r.id, r.decision_id, r.reviewer, r.review_type, r.comment, r.pre_lifecycle,
		       r.post_lifecycle, r.pre_health, r.post_health, r.outcome, r.deferral_reason,
		       r.next_review_date, r.created_at
		FROM decision_reviews r
		JOIN decisions d ON d.id = r.decision_id
		WHERE d.organization = ? AND r.decision_id = ?
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

func (s *SQLiteStore) GetEvaluationHistory(ctx context.Context, orgID, decisionID string) ([]domain.EvaluationHistory, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT h.id, h.decision_id, h.old_lifecycle, h.new_lifecycle, h.old_health, h.new_health,
		       h.invalidated_reason, h.trace, h.triggered_by, h.evaluated_at
		FROM evaluation_history h
		JOIN decisions d ON d.id = h.decision_id
		WHERE d.organization = ? AND h.decision_id = ?
		ORDER BY h.evaluated_at ASC`, orgID, decisionID)
	s.observe("get_evaluation_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EvaluationHistory
	for rows.Next() {
		h, err := scanEvaluationHistorySQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetUnresolvedAssumptionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.AssumptionConflict, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, assumption_id, decision_id, counterpart, resolved, raised_at, resolved_at
		FROM assumption_conflicts WHERE organization = ? AND decision_id = ? AND resolved = 0`,
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

func (s *SQLiteStore) GetUnresolvedDecisionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.DecisionConflict, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, decision_id, counterpart, resolved, raised_at, resolved_at
		FROM decision_conflicts WHERE organization = ? AND decision_id = ? AND resolved = 0`,
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

func (s *SQLiteStore) CountUnresolvedConflicts(ctx context.Context, orgID, decisionID string) (int, int, error) {
	start := time.Now()
	var assumptionConflicts, decisionConflicts int
	err := s.exec(ctx).QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM assumption_conflicts WHERE organization = ? AND decision_id = ? AND resolved = 0),
			(SELECT COUNT(*) FROM decision_conflicts WHERE organization = ? AND decision_id = ? AND resolved = 0)`,
		orgID, decisionID, orgID, decisionID).Scan(&assumptionConflicts, &decisionConflicts)
	s.observe("count_unresolved_conflicts", start, err)
	return assumptionConflicts, decisionConflicts, err
}

func (s *SQLiteStore) queryStrings(ctx context.Context, operation, q string, args ...any) ([]string, error) {
	start := time.Now()
	rows, err := s.exec(ctx).QueryContext(ctx, q, args...)
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

// inClauseQuery expands an IN (%s) placeholder for database/sql, which has
// no array-binding equivalent to pgx's ANY($n).
func inClauseQuery(template, orgID string, ids []string) (string, []any) {
	placeholders := ""
	args := []any{orgID}
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}
	return fmt.Sprintf(template, placeholders), args
}

type sqliteScannable interface {
	Scan(dest ...any) error
}

func scanDecisionSQLite(row sqliteScannable) (*domain.Decision, error) {
	var d domain.Decision
	var lifecycle, governanceTier string
	var params, factors string
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
	if err := unmarshalIfPresent([]byte(params), &d.Parameters); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent([]byte(factors), &d.UrgencyFactors); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanEvaluationHistorySQLite(row sqliteScannable) (*domain.EvaluationHistory, error) {
	var h domain.EvaluationHistory
	var oldLifecycle, newLifecycle, triggeredBy, trace string
	if err := row.Scan(&h.ID, &h.DecisionID, &oldLifecycle, &newLifecycle, &h.OldHealth, &h.NewHealth,
		&h.InvalidatedReason, &trace, &triggeredBy, &h.EvaluatedAt); err != nil {
		return nil, err
	}
	h.OldLifecycle, h.NewLifecycle = domain.Lifecycle(oldLifecycle), domain.Lifecycle(newLifecycle)
	h.TriggeredBy = domain.TriggerSource(triggeredBy)
	if err := unmarshalIfPresent([]byte(trace), &h.Trace); err != nil {
		return nil, err
	}
	return &h, nil
}

func scanGovernanceAuditEntrySQLite(row sqliteScannable) (*domain.GovernanceAuditEntry, error) {
	var e domain.GovernanceAuditEntry
	var action string
	var proposed, prev, next string
	if err := row.Scan(&e.ID, &e.DecisionID, &action, &e.Requester, &e.Approver, &e.Justification,
		&proposed, &prev, &next, &e.CreatedAt, &e.ResolvedAt); err != nil {
		return nil, err
	}
	e.Action = domain.GovernanceAction(action)
	if err := unmarshalIfPresent([]byte(proposed), &e.ProposedChanges); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent([]byte(prev), &e.PreviousState); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent([]byte(next), &e.NewState); err != nil {
		return nil, err
	}
	return &e, nil
}
