package events

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservationId"`
	EventType     string    `json:"eventType"`
	Summary       string    `json:"summary"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurredAt"`
	Data          any       `json:"data,omitempty"`
}

func ListByReservation(ctx context.Context, db *pgxpool.Pool, reservationID string) ([]Event, error) {
	const q = `
SELECT id, reservation_id, event_type, summary, actor, occurred_at, COALESCE(data, '{}'::jsonb)
FROM reservation_events
WHERE reservation_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ReservationID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
