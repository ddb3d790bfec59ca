// Package reservationtest provides an in-memory reservation.Store for tests.
package reservationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"amenitybook/internal/amenity"
	"amenitybook/internal/events"
	"amenitybook/internal/notify"
	"amenitybook/internal/reservation"
)

// Store keeps everything in maps behind one mutex. A transaction holds the
// mutex for its whole duration, which is at least as strict as the row and
// partition locks the Postgres store takes. A failed transaction restores the
// snapshot taken when it began.
type Store struct {
	mu        sync.Mutex
	amenities map[string]amenity.Amenity
	rows      map[string]*reservation.Reservation
	timeline  map[string][]events.Event
	outbox    []notify.Notification
	audit     []string

	// Delay, when set, is slept inside every transaction so concurrent
	// callers actually pile up on the lock.
	Delay time.Duration
}

func NewStore(amenities ...amenity.Amenity) *Store {
	s := &Store{
		amenities: map[string]amenity.Amenity{},
		rows:      map[string]*reservation.Reservation{},
		timeline:  map[string][]events.Event{},
	}
	for _, a := range amenities {
		s.amenities[a.ID] = a
	}
	return s
}

func (s *Store) InTx(ctx context.Context, fn func(tx reservation.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	if err := fn(&tx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) List(ctx context.Context, f reservation.Filter) ([]reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []reservation.Reservation{}
	for _, r := range s.rows {
		switch {
		case f.CommunityID != "" && r.CommunityID != f.CommunityID,
			f.ResidentID != "" && r.ResidentID != f.ResidentID,
			f.AmenityID != "" && r.AmenityID != f.AmenityID,
			f.Date != nil && !r.Date.Equal(*f.Date),
			f.Status != "" && r.Status != f.Status:
			continue
		}
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].PartyTimeStart < out[j].PartyTimeStart
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Events(ctx context.Context, reservationID string) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.timeline[reservationID]...), nil
}

func (s *Store) Amenity(ctx context.Context, id string) (*amenity.Amenity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amenity(id)
}

func (s *Store) ActiveSlots(ctx context.Context, amenityID string, date reservation.Date) ([]reservation.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSlots(amenityID, date), nil
}

// Notifications returns everything queued so far.
func (s *Store) Notifications() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Notification(nil), s.outbox...)
}

// AuditActions returns the audit trail as "action by actor" lines.
func (s *Store) AuditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.audit...)
}

// Put stores r as is, bypassing every rule. Useful to set up odd states.
func (s *Store) Put(r *reservation.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.rows[r.ID] = r.Clone()
}

func (s *Store) get(id string) (*reservation.Reservation, error) {
	r, ok := s.rows[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) amenity(id string) (*amenity.Amenity, error) {
	a, ok := s.amenities[id]
	if !ok {
		return nil, reservation.Error{Code: reservation.CodeNotFound, Message: "amenity not found"}
	}
	return &a, nil
}

func (s *Store) activeSlots(amenityID string, date reservation.Date) []reservation.Slot {
	var out []reservation.Slot
	for _, r := range s.rows {
		if r.AmenityID != amenityID || !r.Date.Equal(date) || r.Status == reservation.StatusCancelled {
			continue
		}
		out = append(out, reservation.Slot{ReservationID: r.ID, Party: r.Party()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Party.Start < out[j].Party.Start })
	return out
}

type snapshot struct {
	rows     map[string]*reservation.Reservation
	timeline map[string][]events.Event
	outbox   int
	audit    int
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		rows:     make(map[string]*reservation.Reservation, len(s.rows)),
		timeline: make(map[string][]events.Event, len(s.timeline)),
		outbox:   len(s.outbox),
		audit:    len(s.audit),
	}
	for id, r := range s.rows {
		snap.rows[id] = r.Clone()
	}
	for id, evs := range s.timeline {
		snap.timeline[id] = append([]events.Event(nil), evs...)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.rows = snap.rows
	s.timeline = snap.timeline
	s.outbox = s.outbox[:snap.outbox]
	s.audit = s.audit[:snap.audit]
}

type tx struct {
	s *Store
}

func (t *tx) Amenity(ctx context.Context, id string) (*amenity.Amenity, error) {
	return t.s.amenity(id)
}

func (t *tx) LockPartition(ctx context.Context, amenityID string, date reservation.Date) error {
	return nil
}

func (t *tx) ActiveSlots(ctx context.Context, amenityID string, date reservation.Date) ([]reservation.Slot, error) {
	return t.s.activeSlots(amenityID, date), nil
}

func (t *tx) GetForUpdate(ctx context.Context, id string) (*reservation.Reservation, error) {
	return t.s.get(id)
}

func (t *tx) Insert(ctx context.Context, r *reservation.Reservation) error {
	if err := t.checkOverlap(r); err != nil {
		return err
	}
	r.ID = uuid.NewString()
	t.s.rows[r.ID] = r.Clone()
	return nil
}

func (t *tx) Update(ctx context.Context, r *reservation.Reservation) error {
	if _, ok := t.s.rows[r.ID]; !ok {
		return reservation.ErrNotFound
	}
	if err := t.checkOverlap(r); err != nil {
		return err
	}
	t.s.rows[r.ID] = r.Clone()
	return nil
}

func (t *tx) Record(ctx context.Context, e reservation.Entry) error {
	var data any
	if e.Data != nil {
		data = e.Data
	}
	actor := e.Actor.Actor()
	t.s.timeline[e.ReservationID] = append(t.s.timeline[e.ReservationID], events.Event{
		ID:            uuid.NewString(),
		ReservationID: e.ReservationID,
		EventType:     e.EventType,
		Summary:       e.Summary,
		Actor:         actor,
		OccurredAt:    e.OccurredAt,
		Data:          data,
	})
	t.s.audit = append(t.s.audit, e.EventType+" by "+actor)

	seen := map[string]bool{}
	for _, to := range e.Notify {
		if to == "" || seen[to] || to == e.Actor.UserID {
			continue
		}
		seen[to] = true
		t.s.outbox = append(t.s.outbox, notify.Notification{
			ReservationID: e.ReservationID,
			RecipientID:   to,
			Template:      e.EventType,
			Payload:       map[string]any{"summary": e.Summary, "actor": actor},
		})
	}
	return nil
}

// checkOverlap plays the part of the exclusion constraint.
func (t *tx) checkOverlap(r *reservation.Reservation) error {
	if r.Status == reservation.StatusCancelled {
		return nil
	}
	av := reservation.FindConflicts(t.s.activeSlots(r.AmenityID, r.Date), r.Party(), r.ID)
	if !av.Available {
		return reservation.Error{Code: reservation.CodeSlotConflict, Message: "exclusion constraint"}
	}
	return nil
}

// Clock is a settable reservation.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
