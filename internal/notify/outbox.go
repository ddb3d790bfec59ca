// Package notify queues outbound notifications. Delivery (email) is done by a
// separate service that drains notification_outbox.
package notify

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Group recipients address every staff member of a role in the community.
const (
	GroupJanitorial = "role:janitorial"
	GroupAdmin      = "role:admin"
)

type Notification struct {
	ReservationID string
	RecipientID   string
	Template      string
	Payload       map[string]any
}

func Enqueue(ctx context.Context, tx pgx.Tx, n Notification) error {
	var s *string
	if n.Payload != nil {
		b, _ := json.Marshal(n.Payload)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO notification_outbox (reservation_id, recipient_id, template, payload)
VALUES ($1, $2, $3, CAST($4 AS jsonb))
`
	_, err := tx.Exec(ctx, q, n.ReservationID, n.RecipientID, n.Template, s)
	return err
}
