package governance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
)

func TestCanEdit_LockedByOther(t *testing.T) {
	lockedBy := "userA"
	d := domain.Decision{LockedBy: &lockedBy}
	actor := collaborators.Actor{UserID: "userB", Role: collaborators.RoleMember}

	assert.Equal(t, governance.DenyLocked, governance.CanEdit(d, actor, "", false))
}

func TestCanEdit_LockedByLeadIsAllowed(t *testing.T) {
	lockedBy := "userA"
	d := domain.Decision{LockedBy: &lockedBy, GovernanceMode: false}
	actor := collaborators.Actor{UserID: "userB", Role: collaborators.RoleLead}

	assert.Equal(t, governance.Allow, governance.CanEdit(d, actor, "", false))
}

func TestCanEdit_GovernanceModeOffAllowsEveryone(t *testing.T) {
	d := domain.Decision{GovernanceMode: false}
	actor := collaborators.Actor{UserID: "m1", Role: collaborators.RoleMember}

	assert.Equal(t, governance.Allow, governance.CanEdit(d, actor, "", false))
}

// Scenario 7: member requester, short justification requires justification;
// longer justification with requiresSecondReviewer requires approval.
func TestCanEdit_MemberJustificationAndApproval(t *testing.T) {
	d := domain.Decision{
		GovernanceMode:            true,
		GovernanceTier:            domain.TierCritical,
		RequiresSecondReviewer:    true,
		EditJustificationRequired: true,
	}
	member := collaborators.Actor{UserID: "m1", Role: collaborators.RoleMember}

	assert.Equal(t, governance.RequiresJustification, governance.CanEdit(d, member, "short", false))
	assert.Equal(t, governance.RequiresApproval, governance.CanEdit(d, member, "a sufficiently long justification", false))
}

func TestCanEdit_LeadCriticalTierNeedsJustification(t *testing.T) {
	d := domain.Decision{GovernanceMode: true, GovernanceTier: domain.TierCritical}
	lead := collaborators.Actor{UserID: "l1", Role: collaborators.RoleLead}

	assert.Equal(t, governance.RequiresJustification, governance.CanEdit(d, lead, "short", false))
	assert.Equal(t, governance.Allow, governance.CanEdit(d, lead, "a sufficiently long justification", false))
}

func TestEscalateTier(t *testing.T) {
	assert.Equal(t, domain.TierStandard, governance.EscalateTier(0, 0))
	assert.Equal(t, domain.TierHighImpact, governance.EscalateTier(1, 1))
	assert.Equal(t, domain.TierCritical, governance.EscalateTier(3, 2))
}
