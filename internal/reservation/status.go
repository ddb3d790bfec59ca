package reservation

import (
	"fmt"

	"amenitybook/internal/amenity"
)

type Status string

const (
	StatusNew                Status = "NEW"
	StatusJanitorialApproved Status = "JANITORIAL_APPROVED"
	StatusFullyApproved      Status = "FULLY_APPROVED"
	StatusCancelled          Status = "CANCELLED"
	StatusCompleted          Status = "COMPLETED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusJanitorialApproved, StatusFullyApproved, StatusCancelled, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// InitialStatus is the only way a reservation gets its first status.
//
//	janitorial  approval  -> status
//	false       false        FULLY_APPROVED
//	false       true         JANITORIAL_APPROVED
//	true        any          NEW
func InitialStatus(p amenity.Policy) Status {
	switch {
	case p.JanitorialRequired:
		return StatusNew
	case p.ApprovalRequired:
		return StatusJanitorialApproved
	default:
		return StatusFullyApproved
	}
}

// ModificationStatus is empty until the first proposal.
type ModificationStatus string

const (
	ModificationPending  ModificationStatus = "PENDING"
	ModificationAccepted ModificationStatus = "ACCEPTED"
	ModificationRejected ModificationStatus = "REJECTED"
)

// DamageAssessmentStatus is empty until damages are assessed.
type DamageAssessmentStatus string

const (
	DamagePending  DamageAssessmentStatus = "PENDING"
	DamageApproved DamageAssessmentStatus = "APPROVED"
	DamageAdjusted DamageAssessmentStatus = "ADJUSTED"
	DamageDenied   DamageAssessmentStatus = "DENIED"
)

type DamageDecision string

const (
	DecisionApprove DamageDecision = "APPROVE"
	DecisionAdjust  DamageDecision = "ADJUST"
	DecisionDeny    DamageDecision = "DENY"
)

func ParseDamageDecision(s string) (DamageDecision, error) {
	switch DamageDecision(s) {
	case DecisionApprove, DecisionAdjust, DecisionDeny:
		return DamageDecision(s), nil
	default:
		return "", validationf("decision must be APPROVE, ADJUST or DENY")
	}
}
