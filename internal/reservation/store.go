package reservation

import (
	"context"
	"time"

	"amenitybook/internal/amenity"
	"amenitybook/internal/auth"
	"amenitybook/internal/events"
)

// Store is the persistence boundary of the service. Every mutation runs in
// one InTx call; if fn returns an error nothing it wrote is kept.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Get(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, f Filter) ([]Reservation, error)
	Events(ctx context.Context, reservationID string) ([]events.Event, error)
	Amenity(ctx context.Context, id string) (*amenity.Amenity, error)
	ActiveSlots(ctx context.Context, amenityID string, date Date) ([]Slot, error)
}

// Tx is the transactional view used by the state machines.
type Tx interface {
	// Amenity reads the amenity and keeps its policy stable for the transaction.
	Amenity(ctx context.Context, id string) (*amenity.Amenity, error)

	// LockPartition serializes writers for one amenity on one date until the
	// transaction ends.
	LockPartition(ctx context.Context, amenityID string, date Date) error
	ActiveSlots(ctx context.Context, amenityID string, date Date) ([]Slot, error)

	// GetForUpdate loads a reservation and row-locks it until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Reservation, error)
	Insert(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error

	// Record appends to the timeline and audit log and queues notifications.
	Record(ctx context.Context, e Entry) error
}

type Filter struct {
	CommunityID string
	ResidentID  string
	AmenityID   string
	Date        *Date
	Status      Status
	Limit       int
}

// Entry is everything written alongside a transition.
type Entry struct {
	ReservationID string
	EventType     string
	Summary       string
	Actor         auth.Principal
	OccurredAt    time.Time
	Data          map[string]any
	// Notify lists recipients: user ids or notify group addresses.
	Notify []string
}
