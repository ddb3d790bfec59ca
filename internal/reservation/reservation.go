package reservation

import (
	"time"

	"github.com/shopspring/decimal"

	"amenitybook/internal/amenity"
)

type Reservation struct {
	ID          string `json:"id"`
	AmenityID   string `json:"amenityId"`
	CommunityID string `json:"communityId"`
	ResidentID  string `json:"residentId"`

	Schedule

	EventName           string  `json:"eventName"`
	IsPrivate           bool    `json:"isPrivate"`
	GuestCount          int     `json:"guestCount"`
	SpecialRequirements *string `json:"specialRequirements,omitempty"`

	Status Status `json:"status"`
	// Policy is the amenity policy captured at creation.
	Policy amenity.Policy `json:"policy"`

	TotalFee        decimal.Decimal  `json:"totalFee"`
	TotalDeposit    decimal.Decimal  `json:"totalDeposit"`
	CancellationFee *decimal.Decimal `json:"cancellationFee,omitempty"`

	ModificationStatus ModificationStatus `json:"modificationStatus,omitempty"`
	Proposed           *Schedule          `json:"proposed,omitempty"`

	DamageAssessmentPending bool                   `json:"damageAssessmentPending"`
	DamageAssessed          bool                   `json:"damageAssessed"`
	DamageAssessmentStatus  DamageAssessmentStatus `json:"damageAssessmentStatus,omitempty"`
	DamageChargeAmount      *decimal.Decimal       `json:"damageChargeAmount,omitempty"`
	DamageCharge            *decimal.Decimal       `json:"damageCharge"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewInput is what a resident submits to book an amenity.
type NewInput struct {
	AmenityID           string
	Schedule            Schedule
	EventName           string
	IsPrivate           bool
	GuestCount          int
	SpecialRequirements *string
}

// New builds a reservation for a on behalf of residentID. Fees and policy are
// copied from the amenity so later amenity edits do not affect it.
func New(a amenity.Amenity, residentID string, in NewInput, now time.Time, loc *time.Location) (*Reservation, error) {
	if !a.Active {
		return nil, newError(CodeValidation, "amenity %s is not bookable", a.Name)
	}
	if err := in.Schedule.Validate(now, loc); err != nil {
		return nil, err
	}
	if in.EventName == "" {
		return nil, validationf("eventName is required")
	}
	if in.GuestCount < 1 {
		return nil, validationf("guestCount must be at least 1")
	}
	if in.GuestCount > a.Capacity {
		return nil, validationf("guestCount %d exceeds capacity %d", in.GuestCount, a.Capacity)
	}

	policy := a.Policy()
	return &Reservation{
		AmenityID:           a.ID,
		CommunityID:         a.CommunityID,
		ResidentID:          residentID,
		Schedule:            in.Schedule,
		EventName:           in.EventName,
		IsPrivate:           in.IsPrivate,
		GuestCount:          in.GuestCount,
		SpecialRequirements: in.SpecialRequirements,
		Status:              InitialStatus(policy),
		Policy:              policy,
		TotalFee:            a.ReservationFee,
		TotalDeposit:        a.Deposit,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// Clone returns a deep copy, so a failed transition can be discarded.
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.SpecialRequirements != nil {
		v := *r.SpecialRequirements
		c.SpecialRequirements = &v
	}
	if r.Proposed != nil {
		v := *r.Proposed
		c.Proposed = &v
	}
	c.CancellationFee = cloneDecimal(r.CancellationFee)
	c.DamageChargeAmount = cloneDecimal(r.DamageChargeAmount)
	c.DamageCharge = cloneDecimal(r.DamageCharge)
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
