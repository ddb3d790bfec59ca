package reservation

import (
	"time"

	"github.com/shopspring/decimal"

	"amenitybook/internal/auth"
)

// AssessDamages records the janitorial damage figure for a completed
// reservation that was closed with damages reported.
func (r *Reservation) AssessDamages(p auth.Principal, amount decimal.Decimal, now time.Time) error {
	if !mayEver(p.Role, ActionAssessDamages) {
		return newError(CodeForbidden, "%s may not assess damages", p.Role)
	}
	if r.Status != StatusCompleted || !r.DamageAssessmentPending || r.DamageAssessed {
		return ErrNoAssessmentExpected
	}
	if !amount.IsPositive() {
		return validationf("damageChargeAmount must be greater than zero")
	}
	if _, err := Decide(p.Role, ActionAssessDamages, r.Status, r.Policy); err != nil {
		return err
	}

	amt := amount.Round(2)
	r.DamageAssessed = true
	r.DamageAssessmentStatus = DamagePending
	r.DamageChargeAmount = &amt
	r.UpdatedAt = now
	return nil
}

// ReviewDamageAssessment is the admin's final word on a pending assessment.
// It can only happen once per reservation.
func (r *Reservation) ReviewDamageAssessment(p auth.Principal, decision DamageDecision, adjusted *decimal.Decimal, now time.Time) error {
	if !mayEver(p.Role, ActionReviewDamages) {
		return newError(CodeForbidden, "%s may not review damage assessments", p.Role)
	}
	if r.DamageAssessmentStatus != DamagePending || r.DamageChargeAmount == nil {
		return ErrNothingToReview
	}
	if _, err := Decide(p.Role, ActionReviewDamages, r.Status, r.Policy); err != nil {
		return err
	}

	var charge *decimal.Decimal
	var status DamageAssessmentStatus
	switch decision {
	case DecisionApprove:
		v := *r.DamageChargeAmount
		charge, status = &v, DamageApproved
	case DecisionAdjust:
		if adjusted == nil {
			return ErrMissingAmount
		}
		if adjusted.IsNegative() {
			return validationf("adjustedAmount must not be negative")
		}
		v := adjusted.Round(2)
		charge, status = &v, DamageAdjusted
	case DecisionDeny:
		charge, status = nil, DamageDenied
	default:
		return validationf("decision must be APPROVE, ADJUST or DENY")
	}

	r.DamageCharge = charge
	r.DamageAssessmentStatus = status
	r.DamageAssessmentPending = false
	r.UpdatedAt = now
	return nil
}
