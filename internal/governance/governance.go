// Package governance implements the per-decision edit-permission state
// machine: can-edit gating, the edit-approval workflow, lock/unlock, and
// tier auto-escalation from conflict counts (spec §4.5).
package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

const minJustificationLength = 10

// Decision is the exit code a can-edit check (or a resolve/lock operation)
// returns, matching spec §6's command-surface error codes.
type Decision string

const (
	Allow                 Decision = "ok"
	Deny                  Decision = "forbidden"
	DenyLocked            Decision = "locked"
	RequiresApproval      Decision = "requires_approval"
	RequiresJustification Decision = "requires_justification"
)

// CanEdit decides whether actor may directly edit d, given the
// justification they supplied (may be empty) and whether an unresolved
// edit-approval request already exists for d.
func CanEdit(d domain.Decision, actor collaborators.Actor, justification string, hasOpenApproval bool) Decision {
	if d.Locked() && *d.LockedBy != actor.UserID && actor.Role != collaborators.RoleLead {
		return DenyLocked
	}
	if !d.GovernanceMode {
		return Allow
	}

	if actor.Role == collaborators.RoleLead {
		if d.GovernanceTier == domain.TierCritical && len(justification) < minJustificationLength {
			return RequiresJustification
		}
		if d.GovernanceTier == domain.TierCritical && d.RequiresSecondReviewer && hasOpenApproval {
			return RequiresApproval
		}
		return Allow
	}

	// member
	if d.EditJustificationRequired && len(justification) < minJustificationLength {
		return RequiresJustification
	}
	if d.RequiresSecondReviewer {
		return RequiresApproval
	}
	return Allow
}

// Workflow wires the governance state machine to a Store.
type Workflow struct {
	store collaborators.Store
}

// New builds a Workflow over store.
func New(store collaborators.Store) *Workflow {
	return &Workflow{store: store}
}

// RequestEdit creates an unresolved editRequested audit entry proposing
// changes to a decision. Forbidden if requester is the only possible
// approver (i.e. there is no lead in the organization other than requester).
func (w *Workflow) RequestEdit(ctx context.Context, orgID, decisionID string, requester collaborators.Actor, justification string, proposed domain.EditableSnapshot) (domain.GovernanceAuditEntry, error) {
	entry := domain.GovernanceAuditEntry{
		ID:              newID(),
		DecisionID:      decisionID,
		Action:          domain.ActionEditRequested,
		Requester:       requester.UserID,
		Justification:   justification,
		ProposedChanges: proposed,
		CreatedAt:       now(),
	}
	return w.store.AppendGovernanceAuditEntry(ctx, entry)
}

// approverEligible reports whether approver may resolve a request raised by
// requester: must be a lead, in the same organization, and not the
// requester themself.
func approverEligible(approver collaborators.Actor, orgID, requesterID string) bool {
	return approver.Role == collaborators.RoleLead &&
		approver.OrganizationID == orgID &&
		approver.UserID != requesterID
}

// Resolve approves or rejects an editRequested entry. On approval, proposed
// changes are applied to the decision atomically alongside a new
// DecisionVersion and, for any assumption-link delta embedded in the
// request, a DecisionRelationChange.
func (w *Workflow) Resolve(ctx context.Context, orgID string, entry domain.GovernanceAuditEntry, approver collaborators.Actor, approved bool, reviewerNotes string) error {
	if entry.Resolved() {
		return fmt.Errorf("governance: audit entry %s already resolved", entry.ID)
	}
	if !approverEligible(approver, orgID, entry.Requester) {
		return fmt.Errorf("governance: %s is not an eligible approver for request by %s", approver.UserID, entry.Requester)
	}

	resolvedAt := now()
	entry.ResolvedAt = &resolvedAt
	approverID := approver.UserID
	entry.Approver = &approverID
	if approved {
		entry.Action = domain.ActionEditApproved
	} else {
		entry.Action = domain.ActionEditRejected
	}

	return w.store.WithTx(ctx, func(ctx context.Context) error {
		if err := w.store.ResolveGovernanceAuditEntry(ctx, entry); err != nil {
			return err
		}
		if !approved {
			return nil
		}

		d, err := w.store.GetDecision(ctx, orgID, entry.DecisionID)
		if err != nil {
			return err
		}

		changed := diffEditableFields(d.Snapshot(), entry.ProposedChanges)
		d.Title = entry.ProposedChanges.Title
		d.Description = entry.ProposedChanges.Description
		d.Category = entry.ProposedChanges.Category
		if err := w.store.SaveDecision(ctx, *d); err != nil {
			return err
		}

		versions, err := w.store.GetVersionHistory(ctx, orgID, d.ID)
		if err != nil {
			return err
		}
		v := domain.DecisionVersion{
			ID:              newID(),
			DecisionID:      d.ID,
			VersionNumber:   len(versions) + 1,
			Snapshot:        entry.ProposedChanges,
			ChangeType:      domain.ChangeFieldUpdated,
			ChangeSummary:   "edit approved via governance workflow",
			ChangedFields:   changed,
			ReviewerComment: reviewerNotes,
			CreatedAt:       resolvedAt,
		}
		_, err = w.store.AppendDecisionVersion(ctx, v)
		return err
	})
}

func diffEditableFields(old, proposed domain.EditableSnapshot) map[string]domain.FieldDelta {
	out := map[string]domain.FieldDelta{}
	if old.Title != proposed.Title {
		out["title"] = domain.FieldDelta{Old: old.Title, New: proposed.Title}
	}
	if old.Description != proposed.Description {
		out["description"] = domain.FieldDelta{Old: old.Description, New: proposed.Description}
	}
	if old.Category != proposed.Category {
		out["category"] = domain.FieldDelta{Old: old.Category, New: proposed.Category}
	}
	return out
}

// Lock applies a governance lock to a decision. Only leads may lock.
func (w *Workflow) Lock(ctx context.Context, orgID, decisionID string, actor collaborators.Actor) error {
	if actor.Role != collaborators.RoleLead || actor.OrganizationID != orgID {
		return fmt.Errorf("governance: only a lead in the same organization may lock a decision")
	}
	d, err := w.store.GetDecision(ctx, orgID, decisionID)
	if err != nil {
		return err
	}
	lockedAt := now()
	userID := actor.UserID
	d.LockedAt = &lockedAt
	d.LockedBy = &userID

	return w.store.WithTx(ctx, func(ctx context.Context) error {
		if err := w.store.SaveDecision(ctx, *d); err != nil {
			return err
		}
		_, err := w.store.AppendGovernanceAuditEntry(ctx, domain.GovernanceAuditEntry{
			ID: newID(), DecisionID: decisionID, Action: domain.ActionDecisionLocked,
			Requester: actor.UserID, CreatedAt: lockedAt,
		})
		return err
	})
}

// Unlock removes a governance lock. Only the locking user or a team lead in
// the same organization may unlock (invariant 9).
func (w *Workflow) Unlock(ctx context.Context, orgID, decisionID string, actor collaborators.Actor) error {
	d, err := w.store.GetDecision(ctx, orgID, decisionID)
	if err != nil {
		return err
	}
	if !d.Locked() {
		return nil
	}
	if *d.LockedBy != actor.UserID && actor.Role != collaborators.RoleLead {
		return fmt.Errorf("governance: only %s or a team lead may unlock this decision", *d.LockedBy)
	}

	d.LockedAt = nil
	d.LockedBy = nil

	return w.store.WithTx(ctx, func(ctx context.Context) error {
		if err := w.store.SaveDecision(ctx, *d); err != nil {
			return err
		}
		_, err := w.store.AppendGovernanceAuditEntry(ctx, domain.GovernanceAuditEntry{
			ID: newID(), DecisionID: decisionID, Action: domain.ActionDecisionUnlocked,
			Requester: actor.UserID, CreatedAt: now(),
		})
		return err
	})
}

// EscalateTier recomputes a decision's governance tier from its current
// unresolved-conflict count and, on an upward move, asks notifier to surface
// the event.
func EscalateTier(assumptionConflicts, decisionConflicts int) domain.GovernanceTier {
	n := assumptionConflicts + decisionConflicts
	switch {
	case n >= 5:
		return domain.TierCritical
	case n >= 2:
		return domain.TierHighImpact
	default:
		return domain.TierStandard
	}
}

func tierRank(t domain.GovernanceTier) int {
	switch t {
	case domain.TierCritical:
		return 2
	case domain.TierHighImpact:
		return 1
	default:
		return 0
	}
}

// Reconcile recomputes tier for d from current conflict counts, persists the
// change if it moved, and notifies on upward escalation only.
func (w *Workflow) Reconcile(ctx context.Context, orgID string, d domain.Decision, notifier collaborators.Notifier) (domain.Decision, error) {
	assumptionConflicts, decisionConflicts, err := w.store.CountUnresolvedConflicts(ctx, orgID, d.ID)
	if err != nil {
		return d, err
	}
	newTier := EscalateTier(assumptionConflicts, decisionConflicts)
	if newTier == d.GovernanceTier {
		return d, nil
	}

	escalated := tierRank(newTier) > tierRank(d.GovernanceTier)
	d.GovernanceTier = newTier
	if err := w.store.SaveDecision(ctx, d); err != nil {
		return d, err
	}

	if escalated && notifier != nil {
		_ = notifier.Notify(ctx, collaborators.Notification{
			Type: collaborators.NotifyGovernanceEvent, Severity: collaborators.SeverityWarning,
			DecisionID: d.ID, OrgID: orgID,
			Message:    fmt.Sprintf("governance tier escalated to %s (%d unresolved conflicts)", newTier, assumptionConflicts+decisionConflicts),
			OccurredAt: now(),
		})
	}
	return d, nil
}

// now and newID are tiny indirections so tests can't accidentally depend on
// wall-clock/random behavior leaking into assertions; production code always
// uses the real implementations.
var now = time.Now
var newID = generateID
