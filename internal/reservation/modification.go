package reservation

import (
	"time"

	"amenitybook/internal/auth"
)

// ProposeModification records a staff proposal to move the reservation.
// The caller must already have checked the proposed slot for conflicts.
func (r *Reservation) ProposeModification(p auth.Principal, proposed Schedule, now time.Time, loc *time.Location) error {
	if !mayEver(p.Role, ActionProposeModification) {
		return newError(CodeForbidden, "%s may not propose modifications", p.Role)
	}
	if r.Status.IsTerminal() {
		return newError(CodeInvalidState, "cannot modify a %s reservation", r.Status)
	}
	// A second proposal may only replace one the resident already answered.
	if r.ModificationStatus == ModificationPending {
		return newError(CodeInvalidState, "a modification proposal is already pending")
	}
	if err := proposed.Validate(now, loc); err != nil {
		return err
	}
	if _, err := Decide(p.Role, ActionProposeModification, r.Status, r.Policy); err != nil {
		return err
	}

	r.Proposed = &proposed
	r.ModificationStatus = ModificationPending
	r.UpdatedAt = now
	return nil
}

// AcceptModification moves the reservation into the proposed slot and sends
// it back through the approval chain from NEW. A proposal whose party start
// has passed while it was pending can no longer be accepted. The caller must
// re-check the proposed slot inside the same transaction first.
func (r *Reservation) AcceptModification(p auth.Principal, now time.Time, loc *time.Location) error {
	if err := r.respondToModification(p, ActionAcceptModification); err != nil {
		return err
	}
	if err := r.Proposed.Validate(now, loc); err != nil {
		return err
	}
	next, err := Decide(p.Role, ActionAcceptModification, r.Status, r.Policy)
	if err != nil {
		return err
	}

	r.Schedule = *r.Proposed
	r.ModificationStatus = ModificationAccepted
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// RejectModification declines the proposal. The proposed fields are kept
// for the record but can no longer be accepted.
func (r *Reservation) RejectModification(p auth.Principal, now time.Time) error {
	if err := r.respondToModification(p, ActionRejectModification); err != nil {
		return err
	}
	if _, err := Decide(p.Role, ActionRejectModification, r.Status, r.Policy); err != nil {
		return err
	}

	r.ModificationStatus = ModificationRejected
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) respondToModification(p auth.Principal, action Action) error {
	if !mayEver(p.Role, action) {
		return newError(CodeForbidden, "only the resident may respond to a modification")
	}
	if err := r.requireOwner(p); err != nil {
		return err
	}
	if r.ModificationStatus != ModificationPending || r.Proposed == nil {
		return ErrNoPendingModification
	}
	return nil
}

// HasPendingModification reports whether a proposal awaits the resident.
func (r *Reservation) HasPendingModification() bool {
	return r.ModificationStatus == ModificationPending && r.Proposed != nil
}
