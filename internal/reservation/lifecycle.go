package reservation

import (
	"time"

	"amenitybook/internal/auth"
)

// The methods in this file and in modification.go and damage.go are the
// state machines. They validate everything first and only then mutate the
// receiver, so an error always leaves the reservation untouched.

// Approve applies a janitorial or admin sign-off.
func (r *Reservation) Approve(p auth.Principal, now time.Time) error {
	next, err := Decide(p.Role, ActionApprove, r.Status, r.Policy)
	if err != nil {
		return err
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Reject cancels the reservation at the current approval tier. It is final.
func (r *Reservation) Reject(p auth.Principal, now time.Time) error {
	next, err := Decide(p.Role, ActionReject, r.Status, r.Policy)
	if err != nil {
		return err
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Cancel is the resident's own cancellation. The fee is priced at now and
// recorded on the reservation; charging it is the caller's job.
func (r *Reservation) Cancel(p auth.Principal, now time.Time, loc *time.Location) (Fee, error) {
	if err := r.requireOwner(p); err != nil {
		return Fee{}, err
	}
	next, err := Decide(p.Role, ActionCancel, r.Status, r.Policy)
	if err != nil {
		return Fee{}, err
	}

	fee := FeeFor(r.TotalFee, r.Start(loc), now)
	amount := fee.Amount
	r.Status = next
	r.CancellationFee = &amount
	r.UpdatedAt = now
	return fee, nil
}

// Complete closes a fully approved reservation on or after its date.
// damagesReported opens the damage assessment sub-process.
func (r *Reservation) Complete(p auth.Principal, damagesReported bool, now time.Time, loc *time.Location) error {
	next, err := Decide(p.Role, ActionComplete, r.Status, r.Policy)
	if err != nil {
		return err
	}
	if DateIn(now, loc).Before(r.Date) {
		return newError(CodePrematureCompletion, "reservation on %s cannot be completed before its date", r.Date)
	}
	r.Status = next
	r.DamageAssessmentPending = damagesReported
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) requireOwner(p auth.Principal) error {
	if p.Role == auth.RoleResident && p.UserID != r.ResidentID {
		return newError(CodeForbidden, "reservation belongs to another resident")
	}
	return nil
}
