package reservation

import (
	"amenitybook/internal/amenity"
	"amenitybook/internal/auth"
)

type Action string

const (
	ActionApprove             Action = "APPROVE"
	ActionReject              Action = "REJECT"
	ActionCancel              Action = "CANCEL"
	ActionComplete            Action = "COMPLETE"
	ActionProposeModification Action = "PROPOSE_MODIFICATION"
	ActionAcceptModification  Action = "ACCEPT_MODIFICATION"
	ActionRejectModification  Action = "REJECT_MODIFICATION"
	ActionAssessDamages       Action = "ASSESS_DAMAGES"
	ActionReviewDamages       Action = "REVIEW_DAMAGE_ASSESSMENT"
)

// Transition is one allowed edge of the primary status graph. Actions that
// only drive a sub-process (modification, damage review) appear as self
// edges so the table also records who may act in which status.
type Transition struct {
	Role   auth.Role
	Action Action
	From   Status
	To     Status
	// Guard, when set, must hold for the edge to apply.
	Guard func(amenity.Policy) bool
}

func adminApprovalRequired(p amenity.Policy) bool { return p.ApprovalRequired }
func noAdminApproval(p amenity.Policy) bool { return !p.ApprovalRequired }

var activeStatuses = []Status{StatusNew, StatusJanitorialApproved, StatusFullyApproved}

var transitionsTable = buildTable()

func buildTable() []Transition {
	t := []Transition{
		// Approval chain
		{Role: auth.RoleJanitorial, Action: ActionApprove, From: StatusNew, To: StatusJanitorialApproved, Guard: adminApprovalRequired},
		{Role: auth.RoleJanitorial, Action: ActionApprove, From: StatusNew, To: StatusFullyApproved, Guard: noAdminApproval},
		{Role: auth.RoleJanitorial, Action: ActionReject, From: StatusNew, To: StatusCancelled},
		{Role: auth.RoleAdmin, Action: ActionApprove, From: StatusJanitorialApproved, To: StatusFullyApproved},
		{Role: auth.RoleAdmin, Action: ActionReject, From: StatusJanitorialApproved, To: StatusCancelled},

		// Completion
		{Role: auth.RoleJanitorial, Action: ActionComplete, From: StatusFullyApproved, To: StatusCompleted},

		// Damage assessment runs on completed reservations only.
		{Role: auth.RoleJanitorial, Action: ActionAssessDamages, From: StatusCompleted, To: StatusCompleted},
		{Role: auth.RoleAdmin, Action: ActionReviewDamages, From: StatusCompleted, To: StatusCompleted},
	}

	for _, s := range activeStatuses {
		t = append(t,
			Transition{Role: auth.RoleResident, Action: ActionCancel, From: s, To: StatusCancelled},
			Transition{Role: auth.RoleJanitorial, Action: ActionProposeModification, From: s, To: s},
			Transition{Role: auth.RoleAdmin, Action: ActionProposeModification, From: s, To: s},
			Transition{Role: auth.RoleResident, Action: ActionRejectModification, From: s, To: s},
			// Accepting a modification is the one edge that moves backwards:
			// the new slot has to be signed off again.
			Transition{Role: auth.RoleResident, Action: ActionAcceptModification, From: s, To: StatusNew},
		)
	}
	return t
}

// Transitions returns a copy of the full table.
func Transitions() []Transition {
	out := make([]Transition, len(transitionsTable))
	copy(out, transitionsTable)
	return out
}

// Decide resolves (role, action, from) against the table.
//
// A role that never performs action gets ErrForbidden. A role that does, but
// not at from, gets ErrInvalidTransition: that is also what the loser of two
// concurrent approvals sees once the winner has moved the status on.
func Decide(role auth.Role, action Action, from Status, policy amenity.Policy) (Status, error) {
	if !mayEver(role, action) {
		return "", newError(CodeForbidden, "%s may not %s", role, action)
	}

	for _, tr := range transitionsTable {
		if tr.Role != role || tr.Action != action || tr.From != from {
			continue
		}
		if tr.Guard != nil && !tr.Guard(policy) {
			continue
		}
		return tr.To, nil
	}
	return "", newError(CodeInvalidTransition, "%s cannot %s a %s reservation", role, action, from)
}

func mayEver(role auth.Role, action Action) bool {
	for _, tr := range transitionsTable {
		if tr.Role == role && tr.Action == action {
			return true
		}
	}
	return false
}
