package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

// Event types written to a reservation's timeline.
const (
	TypeCreated               = "RESERVATION_CREATED"
	TypeApproved              = "RESERVATION_APPROVED"
	TypeRejected              = "RESERVATION_REJECTED"
	TypeCancelled             = "RESERVATION_CANCELLED"
	TypeCompleted             = "RESERVATION_COMPLETED"
	TypeModificationProposed  = "MODIFICATION_PROPOSED"
	TypeModificationAccepted  = "MODIFICATION_ACCEPTED"
	TypeModificationRejected  = "MODIFICATION_REJECTED"
	TypeDamagesAssessed       = "DAMAGES_ASSESSED"
	TypeDamageReviewCompleted = "DAMAGE_REVIEW_COMPLETED"
)

func Insert(ctx context.Context, tx pgx.Tx, reservationID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO reservation_events (reservation_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, reservationID, eventType, summary, actor, occurredAt, s)
	return err
}
