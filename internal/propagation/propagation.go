// Package propagation implements the change-propagation coordinator: given a
// change event, it determines which decisions' evaluation inputs may have
// changed and marks them dirty (needsEvaluation = true) so the Scheduler
// picks them up. The dirty flag is idempotent — marking a decision dirty
// twice is indistinguishable from marking it once.
package propagation

import (
	"context"
	"fmt"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

// EventKind tags which kind of upstream change fired a propagation pass
// (spec §4.3).
type EventKind string

const (
	EventAssumptionChanged EventKind = "assumption_changed"
	EventConstraintChanged EventKind = "constraint_changed"
	EventDependencyLinked  EventKind = "dependency_linked"
	EventDependencyUnlinked EventKind = "dependency_unlinked"
	EventDependencyOutputChanged EventKind = "dependency_output_changed"
)

// Event describes one upstream change that may dirty other decisions.
type Event struct {
	Kind         EventKind
	OrgID        string
	AssumptionID string // EventAssumptionChanged
	AssumptionIsUniversal bool
	ConstraintID string // EventConstraintChanged
	SourceDecisionID string // EventDependencyLinked/Unlinked: the edge's source
	TargetDecisionID string // EventDependencyOutputChanged: whose output changed
}

// Reader is the subset of the Store the coordinator needs to resolve fan-out
// sets before marking decisions dirty.
type Reader interface {
	ListDecisionsLinkedToAssumption(ctx context.Context, orgID, assumptionID string) ([]string, error)
	ListDecisionIDsInOrg(ctx context.Context, orgID string) ([]string, error)
	ListDecisionsLinkedToConstraint(ctx context.Context, orgID, constraintID string) ([]string, error)
	GetDependents(ctx context.Context, orgID, decisionID string) ([]string, error)
	GetDecisionLifecycle(ctx context.Context, orgID, decisionID string) (domain.Lifecycle, error)
}

// Marker applies the idempotent dirty flag. Implementations must be
// idempotent and must never dirty a Retired decision.
type Marker interface {
	MarkDirty(ctx context.Context, orgID string, decisionIDs []string) error
}

// Coordinator resolves fan-out sets for change events and marks the
// affected decisions dirty.
type Coordinator struct {
	reader Reader
	marker Marker
}

// New builds a Coordinator over the given Reader/Marker.
func New(reader Reader, marker Marker) *Coordinator {
	return &Coordinator{reader: reader, marker: marker}
}

// Apply resolves ev's fan-out set and marks every affected decision dirty.
// Retired decisions are filtered out by the Marker, not here — the
// coordinator does not need to know lifecycle to compute fan-out, except for
// the dependency-output-changed case where the changed decision's own id is
// never included in its own fan-out.
func (c *Coordinator) Apply(ctx context.Context, ev Event) error {
	ids, err := c.resolve(ctx, ev)
	if err != nil {
		return fmt.Errorf("propagation: resolving fan-out for %s: %w", ev.Kind, err)
	}
	if len(ids) == 0 {
		return nil
	}
	return c.marker.MarkDirty(ctx, ev.OrgID, ids)
}

func (c *Coordinator) resolve(ctx context.Context, ev Event) ([]string, error) {
	switch ev.Kind {
	case EventAssumptionChanged:
		linked, err := c.reader.ListDecisionsLinkedToAssumption(ctx, ev.OrgID, ev.AssumptionID)
		if err != nil {
			return nil, err
		}
		if !ev.AssumptionIsUniversal {
			return linked, nil
		}
		all, err := c.reader.ListDecisionIDsInOrg(ctx, ev.OrgID)
		if err != nil {
			return nil, err
		}
		return unionIDs(linked, all), nil

	case EventConstraintChanged:
		return c.reader.ListDecisionsLinkedToConstraint(ctx, ev.OrgID, ev.ConstraintID)

	case EventDependencyLinked, EventDependencyUnlinked:
		if ev.SourceDecisionID == "" {
			return nil, nil
		}
		return []string{ev.SourceDecisionID}, nil

	case EventDependencyOutputChanged:
		return c.reader.GetDependents(ctx, ev.OrgID, ev.TargetDecisionID)

	default:
		return nil, fmt.Errorf("unknown propagation event kind %q", ev.Kind)
	}
}

func unionIDs(sets ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
