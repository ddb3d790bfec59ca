package reservation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"amenitybook/internal/amenity"
	"amenitybook/internal/auth"
	"amenitybook/internal/events"
	"amenitybook/internal/notify"
)

type Service struct {
	store Store
	clock Clock
	loc   *time.Location
}

func NewService(store Store, clock Clock, loc *time.Location) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, clock: clock, loc: loc}
}

// Create books an amenity for a resident. The availability check and the
// insert share one transaction under the (amenity, date) partition lock, so
// of two overlapping concurrent requests exactly one wins.
func (s *Service) Create(ctx context.Context, p auth.Principal, in NewInput) (*Reservation, error) {
	if p.Role != auth.RoleResident {
		return nil, newError(CodeForbidden, "only residents may book amenities")
	}
	now := s.clock.Now()

	var out *Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.Amenity(ctx, in.AmenityID)
		if err != nil {
			return err
		}
		if err := sameCommunity(p, a.CommunityID); err != nil {
			return err
		}

		r, err := New(*a, p.UserID, in, now, s.loc)
		if err != nil {
			return err
		}
		if err := reserveSlot(ctx, tx, r.AmenityID, r.Date, r.Party(), ""); err != nil {
			return err
		}
		if err := tx.Insert(ctx, r); err != nil {
			return err
		}

		if err := tx.Record(ctx, Entry{
			ReservationID: r.ID,
			EventType:     events.TypeCreated,
			Summary:       fmt.Sprintf("Reserved %s on %s %s", a.Name, r.Date, r.Party()),
			Actor:         p,
			OccurredAt:    now,
			Data:          map[string]any{"status": r.Status, "totalFee": r.TotalFee.StringFixed(2), "totalDeposit": r.TotalDeposit.StringFixed(2)},
			Notify:        recipientsFor(r),
		}); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("reservation created id=%s amenity=%s date=%s party=%s status=%s", out.ID, out.AmenityID, out.Date, out.Party(), out.Status)
	return out, nil
}

func (s *Service) Approve(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		from := r.Status
		if err := r.Approve(p, now); err != nil {
			return Entry{}, err
		}
		return Entry{
			EventType: events.TypeApproved,
			Summary:   fmt.Sprintf("Approved by %s", p.Role),
			Data:      map[string]any{"from": from, "to": r.Status},
			Notify:    recipientsFor(r),
		}, nil
	})
}

func (s *Service) Reject(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		from := r.Status
		if err := r.Reject(p, now); err != nil {
			return Entry{}, err
		}
		return Entry{
			EventType: events.TypeRejected,
			Summary:   fmt.Sprintf("Rejected by %s", p.Role),
			Data:      map[string]any{"from": from, "to": r.Status},
			Notify:    []string{r.ResidentID},
		}, nil
	})
}

// Cancel is resident-initiated. It returns the fee that the caller has to
// charge; the reservation records it.
func (s *Service) Cancel(ctx context.Context, p auth.Principal, id string) (*Reservation, Fee, error) {
	var fee Fee
	r, err := s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		from := r.Status
		f, err := r.Cancel(p, now, s.loc)
		if err != nil {
			return Entry{}, err
		}
		fee = f
		return Entry{
			EventType: events.TypeCancelled,
			Summary:   fmt.Sprintf("Cancelled by resident (%s fee %s)", f.Tier, f.Amount.StringFixed(2)),
			Data:      map[string]any{"from": from, "feeTier": f.Tier, "fee": f.Amount.StringFixed(2)},
			Notify:    staffFor(from, r.Policy),
		}, nil
	})
	if err != nil {
		return nil, Fee{}, err
	}
	return r, fee, nil
}

func (s *Service) Complete(ctx context.Context, p auth.Principal, id string, damagesReported bool) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		if err := r.Complete(p, damagesReported, now, s.loc); err != nil {
			return Entry{}, err
		}
		notifyTo := []string{r.ResidentID}
		if damagesReported {
			notifyTo = append(notifyTo, notify.GroupAdmin)
		}
		return Entry{
			EventType: events.TypeCompleted,
			Summary:   "Marked complete",
			Data:      map[string]any{"damagesReported": damagesReported},
			Notify:    notifyTo,
		}, nil
	})
}

// ProposeModification checks the proposed slot against every other booking
// and stores it as a pending proposal.
func (s *Service) ProposeModification(ctx context.Context, p auth.Principal, id string, proposed Schedule) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		if err := r.ProposeModification(p, proposed, now, s.loc); err != nil {
			return Entry{}, err
		}
		if err := reserveSlot(ctx, tx, r.AmenityID, proposed.Date, proposed.Party(), r.ID); err != nil {
			return Entry{}, err
		}
		return Entry{
			EventType: events.TypeModificationProposed,
			Summary:   fmt.Sprintf("Proposed move to %s %s", proposed.Date, proposed.Party()),
			Data:      map[string]any{"proposed": proposed},
			Notify:    []string{r.ResidentID},
		}, nil
	})
}

// AcceptModification re-runs the availability check for the proposed slot,
// since proposals do not hold it, then applies the move.
func (s *Service) AcceptModification(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		from, prev := r.Status, r.Schedule
		if err := r.AcceptModification(p, now, s.loc); err != nil {
			return Entry{}, err
		}
		if err := reserveSlot(ctx, tx, r.AmenityID, r.Date, r.Party(), r.ID); err != nil {
			return Entry{}, err
		}
		return Entry{
			EventType: events.TypeModificationAccepted,
			Summary:   fmt.Sprintf("Moved to %s %s; approval restarted", r.Date, r.Party()),
			Data:      map[string]any{"from": from, "to": r.Status, "previous": prev},
			Notify:    recipientsFor(r),
		}, nil
	})
}

func (s *Service) RejectModification(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		if err := r.RejectModification(p, now); err != nil {
			return Entry{}, err
		}
		return Entry{
			EventType: events.TypeModificationRejected,
			Summary:   "Resident declined the proposed change",
			Notify:    staffFor(r.Status, r.Policy),
		}, nil
	})
}

func (s *Service) AssessDamages(ctx context.Context, p auth.Principal, id string, amount decimal.Decimal) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		if err := r.AssessDamages(p, amount, now); err != nil {
			return Entry{}, err
		}
		return Entry{
			EventType: events.TypeDamagesAssessed,
			Summary:   fmt.Sprintf("Damages assessed at %s", r.DamageChargeAmount.StringFixed(2)),
			Data:      map[string]any{"damageChargeAmount": r.DamageChargeAmount.StringFixed(2)},
			Notify:    []string{notify.GroupAdmin},
		}, nil
	})
}

func (s *Service) ReviewDamageAssessment(ctx context.Context, p auth.Principal, id string, decision DamageDecision, adjusted *decimal.Decimal) (*Reservation, error) {
	return s.mutate(ctx, p, id, func(tx Tx, r *Reservation, now time.Time) (Entry, error) {
		if err := r.ReviewDamageAssessment(p, decision, adjusted, now); err != nil {
			return Entry{}, err
		}
		data := map[string]any{"decision": decision, "status": r.DamageAssessmentStatus}
		summary := fmt.Sprintf("Damage assessment %s", r.DamageAssessmentStatus)
		if r.DamageCharge != nil {
			data["damageCharge"] = r.DamageCharge.StringFixed(2)
			summary += ": charge " + r.DamageCharge.StringFixed(2)
		}
		return Entry{
			EventType: events.TypeDamageReviewCompleted,
			Summary:   summary,
			Data:      data,
			Notify:    []string{r.ResidentID},
		}, nil
	})
}

// Get returns a reservation visible to p: residents see their own, staff see
// their community's.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*Reservation, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := visible(p, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, f Filter) ([]Reservation, error) {
	if p.CommunityID == "" {
		return []Reservation{}, nil
	}
	f.CommunityID = p.CommunityID
	if !p.Role.IsStaff() {
		f.ResidentID = p.UserID
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.store.List(ctx, f)
}

func (s *Service) Events(ctx context.Context, p auth.Principal, id string) ([]events.Event, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, id)
}

// QuoteFee prices cancelling or moving the reservation right now without
// touching it.
func (s *Service) QuoteFee(ctx context.Context, p auth.Principal, id string) (Fee, error) {
	r, err := s.Get(ctx, p, id)
	if err != nil {
		return Fee{}, err
	}
	if r.Status.IsTerminal() {
		return Fee{}, newError(CodeInvalidState, "reservation is %s", r.Status)
	}
	return FeeFor(r.TotalFee, r.Start(s.loc), s.clock.Now()), nil
}

// CheckAvailability is the read-only form used by booking forms. It takes no
// locks, so the answer can be stale by the time a reservation is submitted.
func (s *Service) CheckAvailability(ctx context.Context, p auth.Principal, amenityID string, date Date, party TimeRange, excludeID string) (Availability, error) {
	a, err := s.store.Amenity(ctx, amenityID)
	if err != nil {
		return Availability{}, err
	}
	if err := sameCommunity(p, a.CommunityID); err != nil {
		return Availability{}, err
	}
	if err := party.validate("party"); err != nil {
		return Availability{}, err
	}
	slots, err := s.store.ActiveSlots(ctx, amenityID, date)
	if err != nil {
		return Availability{}, err
	}
	return FindConflicts(slots, party, excludeID), nil
}

type mutation func(tx Tx, r *Reservation, now time.Time) (Entry, error)

// mutate runs fn against a row-locked copy of the reservation and persists it
// together with its timeline entry. Concurrent writers on the same row queue
// on the lock and see each other's result.
func (s *Service) mutate(ctx context.Context, p auth.Principal, id string, fn mutation) (*Reservation, error) {
	var out *Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		r, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := visible(p, r); err != nil {
			return err
		}

		now := s.clock.Now()
		next := r.Clone()
		e, err := fn(tx, next, now)
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, next); err != nil {
			return err
		}

		e.ReservationID = next.ID
		e.Actor = p
		e.OccurredAt = now
		if err := tx.Record(ctx, e); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("reservation updated id=%s actor=%s status=%s modification=%s damage=%s",
		out.ID, p.Actor(), out.Status, out.ModificationStatus, out.DamageAssessmentStatus)
	return out, nil
}

// sameCommunity and visible treat a principal without a community as
// belonging to none.
func sameCommunity(p auth.Principal, communityID string) error {
	if p.CommunityID == "" || p.CommunityID != communityID {
		return newError(CodeNotFound, "amenity not found")
	}
	return nil
}

func visible(p auth.Principal, r *Reservation) error {
	if p.CommunityID == "" || p.CommunityID != r.CommunityID {
		return ErrNotFound
	}
	if !p.Role.IsStaff() && p.UserID != r.ResidentID {
		return ErrNotFound
	}
	return nil
}

// recipientsFor tells the resident about the new status and the staff tier
// that has to act next, if any.
func recipientsFor(r *Reservation) []string {
	return append([]string{r.ResidentID}, staffFor(r.Status, r.Policy)...)
}

func staffFor(s Status, policy amenity.Policy) []string {
	switch s {
	case StatusNew:
		return []string{notify.GroupJanitorial}
	case StatusJanitorialApproved:
		return []string{notify.GroupAdmin}
	case StatusFullyApproved:
		if policy.JanitorialRequired {
			return []string{notify.GroupJanitorial}
		}
	}
	return nil
}
