package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Insert records who did what to a reservation. It runs in the caller's
// transaction so a rolled back transition leaves no audit row behind.
func Insert(ctx context.Context, tx pgx.Tx, reservationID *string, action, actorID, actorRole string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (reservation_id, action, actor_id, actor_role, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, reservationID, action, actorID, actorRole, s)
	return err
}
