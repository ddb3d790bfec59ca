package amenity

import (
	"github.com/shopspring/decimal"
)

type Amenity struct {
	ID                 string          `json:"id"`
	CommunityID        string          `json:"communityId"`
	Name               string          `json:"name"`
	Capacity           int             `json:"capacity"`
	ReservationFee     decimal.Decimal `json:"reservationFee"`
	Deposit            decimal.Decimal `json:"deposit"`
	JanitorialRequired bool            `json:"janitorialRequired"`
	ApprovalRequired   bool            `json:"approvalRequired"`
	Active             bool            `json:"active"`
}

// Policy is the part of an amenity that drives the approval chain.
// Reservations keep a copy taken at creation time.
type Policy struct {
	JanitorialRequired bool `json:"janitorialRequired"`
	ApprovalRequired   bool `json:"approvalRequired"`
}

func (a Amenity) Policy() Policy {
	return Policy{JanitorialRequired: a.JanitorialRequired, ApprovalRequired: a.ApprovalRequired}
}
