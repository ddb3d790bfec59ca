package reservation

import (
	"context"
	"strings"
)

// Slot is an existing booking's party range on a given amenity and date.
type Slot struct {
	ReservationID string
	Party         TimeRange
}

type Availability struct {
	Available bool     `json:"available"`
	Conflicts []string `json:"conflicts"`
}

// FindConflicts tests want against existing non-cancelled slots. The slot
// belonging to excludeID is skipped so a reservation can be checked against
// everything but itself.
func FindConflicts(existing []Slot, want TimeRange, excludeID string) Availability {
	out := Availability{Available: true, Conflicts: []string{}}
	for _, s := range existing {
		if excludeID != "" && s.ReservationID == excludeID {
			continue
		}
		if s.Party.Overlaps(want) {
			out.Available = false
			out.Conflicts = append(out.Conflicts, s.ReservationID)
		}
	}
	return out
}

// CheckAvailability reads the partition for (amenityID, date) through tx.
// Callers that go on to write must hold the partition lock first.
func CheckAvailability(ctx context.Context, tx Tx, amenityID string, date Date, want TimeRange, excludeID string) (Availability, error) {
	if err := want.validate("party"); err != nil {
		return Availability{}, err
	}
	slots, err := tx.ActiveSlots(ctx, amenityID, date)
	if err != nil {
		return Availability{}, err
	}
	return FindConflicts(slots, want, excludeID), nil
}

// reserveSlot locks the partition and fails with ErrSlotConflict if want is taken.
func reserveSlot(ctx context.Context, tx Tx, amenityID string, date Date, want TimeRange, excludeID string) error {
	if err := tx.LockPartition(ctx, amenityID, date); err != nil {
		return err
	}
	av, err := CheckAvailability(ctx, tx, amenityID, date, want, excludeID)
	if err != nil {
		return err
	}
	if !av.Available {
		return newError(CodeSlotConflict, "%s on %s overlaps reservation(s) %s", want, date, strings.Join(av.Conflicts, ", "))
	}
	return nil
}
