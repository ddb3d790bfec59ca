package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"amenitybook/internal/amenity"
	"amenitybook/internal/audit"
	"amenitybook/internal/events"
	"amenitybook/internal/notify"
	"amenitybook/pkg/db"
)

// Repository is the Postgres Store.
type Repository struct {
	db          *pgxpool.Pool
	maxAttempts int
}

func NewRepository(pool *pgxpool.Pool, maxAttempts int) *Repository {
	return &Repository{db: pool, maxAttempts: maxAttempts}
}

func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTxRetry(ctx, r.db, r.maxAttempts, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

const selectReservation = `
SELECT id, amenity_id, community_id, resident_id,
       date::text,
       to_char(setup_time_start, 'HH24:MI'), to_char(setup_time_end, 'HH24:MI'),
       to_char(party_time_start, 'HH24:MI'), to_char(party_time_end, 'HH24:MI'),
       event_name, is_private, guest_count, special_requirements,
       status, janitorial_required, approval_required,
       total_fee::text, total_deposit::text, cancellation_fee::text,
       modification_status, proposed_date::text,
       to_char(proposed_setup_time_start, 'HH24:MI'), to_char(proposed_setup_time_end, 'HH24:MI'),
       to_char(proposed_party_time_start, 'HH24:MI'), to_char(proposed_party_time_end, 'HH24:MI'),
       damage_assessment_pending, damage_assessed, damage_assessment_status,
       damage_charge_amount::text, damage_charge::text,
       created_at, updated_at
FROM reservations
`

func (r *Repository) Get(ctx context.Context, id string) (*Reservation, error) {
	return scanReservation(r.db.QueryRow(ctx, selectReservation+`WHERE id = $1`, id))
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Reservation, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CommunityID != "" {
		add("community_id = $%d", f.CommunityID)
	}
	if f.ResidentID != "" {
		add("resident_id = $%d", f.ResidentID)
	}
	if f.AmenityID != "" {
		add("amenity_id = $%d", f.AmenityID)
	}
	if f.Date != nil {
		add("date = $%d", f.Date.String())
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}

	q := selectReservation
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	q += "ORDER BY date ASC, party_time_start ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *Repository) Events(ctx context.Context, reservationID string) ([]events.Event, error) {
	return events.ListByReservation(ctx, r.db, reservationID)
}

func (r *Repository) Amenity(ctx context.Context, id string) (*amenity.Amenity, error) {
	a, err := amenity.NewRepository(r.db).GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, newError(CodeNotFound, "amenity not found")
	}
	return a, err
}

func (r *Repository) ActiveSlots(ctx context.Context, amenityID string, date Date) ([]Slot, error) {
	return activeSlots(ctx, r.db, amenityID, date)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Amenity(ctx context.Context, id string) (*amenity.Amenity, error) {
	a, err := amenity.Get(ctx, t.tx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, newError(CodeNotFound, "amenity not found")
	}
	return a, err
}

// LockPartition takes a transaction-scoped advisory lock keyed on the
// amenity and date. It is released on commit or rollback.
func (t *pgTx) LockPartition(ctx context.Context, amenityID string, date Date) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text || '/' || $2::text, 0))`, amenityID, date.String())
	return err
}

func (t *pgTx) ActiveSlots(ctx context.Context, amenityID string, date Date) ([]Slot, error) {
	return activeSlots(ctx, t.tx, amenityID, date)
}

func (t *pgTx) GetForUpdate(ctx context.Context, id string) (*Reservation, error) {
	return scanReservation(t.tx.QueryRow(ctx, selectReservation+`WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) Insert(ctx context.Context, r *Reservation) error {
	const q = `
INSERT INTO reservations (
  amenity_id, community_id, resident_id,
  date, setup_time_start, setup_time_end, party_time_start, party_time_end,
  event_name, is_private, guest_count, special_requirements,
  status, janitorial_required, approval_required,
  total_fee, total_deposit, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
RETURNING id
`
	err := t.tx.QueryRow(ctx, q,
		r.AmenityID, r.CommunityID, r.ResidentID,
		r.Date.String(), r.SetupTimeStart.String(), r.SetupTimeEnd.String(), r.PartyTimeStart.String(), r.PartyTimeEnd.String(),
		r.EventName, r.IsPrivate, r.GuestCount, r.SpecialRequirements,
		string(r.Status), r.Policy.JanitorialRequired, r.Policy.ApprovalRequired,
		r.TotalFee.StringFixed(2), r.TotalDeposit.StringFixed(2), r.CreatedAt,
	).Scan(&r.ID)
	return mapWriteErr(err)
}

// Update writes every mutable column. Identity, fees and policy never change
// after creation.
func (t *pgTx) Update(ctx context.Context, r *Reservation) error {
	const q = `
UPDATE reservations SET
  date = $2, setup_time_start = $3, setup_time_end = $4, party_time_start = $5, party_time_end = $6,
  status = $7, cancellation_fee = $8,
  modification_status = $9, proposed_date = $10,
  proposed_setup_time_start = $11, proposed_setup_time_end = $12,
  proposed_party_time_start = $13, proposed_party_time_end = $14,
  damage_assessment_pending = $15, damage_assessed = $16, damage_assessment_status = $17,
  damage_charge_amount = $18, damage_charge = $19,
  updated_at = $20
WHERE id = $1
`
	var pDate, pSetupStart, pSetupEnd, pPartyStart, pPartyEnd *string
	if p := r.Proposed; p != nil {
		pDate = strPtr(p.Date.String())
		pSetupStart, pSetupEnd = strPtr(p.SetupTimeStart.String()), strPtr(p.SetupTimeEnd.String())
		pPartyStart, pPartyEnd = strPtr(p.PartyTimeStart.String()), strPtr(p.PartyTimeEnd.String())
	}

	tag, err := t.tx.Exec(ctx, q, r.ID,
		r.Date.String(), r.SetupTimeStart.String(), r.SetupTimeEnd.String(), r.PartyTimeStart.String(), r.PartyTimeEnd.String(),
		string(r.Status), decimalArg(r.CancellationFee),
		nullIfEmpty(string(r.ModificationStatus)), pDate,
		pSetupStart, pSetupEnd, pPartyStart, pPartyEnd,
		r.DamageAssessmentPending, r.DamageAssessed, nullIfEmpty(string(r.DamageAssessmentStatus)),
		decimalArg(r.DamageChargeAmount), decimalArg(r.DamageCharge),
		r.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) Record(ctx context.Context, e Entry) error {
	actor := e.Actor.Actor()
	var data any
	if e.Data != nil {
		data = e.Data
	}
	if err := events.Insert(ctx, t.tx, e.ReservationID, e.EventType, e.Summary, actor, e.OccurredAt, data); err != nil {
		return err
	}
	id := e.ReservationID
	if err := audit.Insert(ctx, t.tx, &id, e.EventType, e.Actor.UserID, string(e.Actor.Role), data); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, to := range e.Notify {
		if to == "" || seen[to] || to == e.Actor.UserID {
			continue
		}
		seen[to] = true
		if err := notify.Enqueue(ctx, t.tx, notify.Notification{
			ReservationID: e.ReservationID,
			RecipientID:   to,
			Template:      strings.ToLower(e.EventType),
			Payload:       map[string]any{"summary": e.Summary, "actor": actor},
		}); err != nil {
			return err
		}
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func activeSlots(ctx context.Context, q querier, amenityID string, date Date) ([]Slot, error) {
	const sql = `
SELECT id, to_char(party_time_start, 'HH24:MI'), to_char(party_time_end, 'HH24:MI')
FROM reservations
WHERE amenity_id = $1 AND date = $2 AND status <> 'CANCELLED'
ORDER BY party_time_start ASC
`
	rows, err := q.Query(ctx, sql, amenityID, date.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var s Slot
		var start, end string
		if err := rows.Scan(&s.ReservationID, &start, &end); err != nil {
			return nil, err
		}
		if s.Party.Start, err = ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if s.Party.End, err = ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var date, setupStart, setupEnd, partyStart, partyEnd string
	var status, totalFee, totalDeposit string
	var cancellationFee, modStatus, damageStatus, damageAmount, damageCharge *string
	var pDate, pSetupStart, pSetupEnd, pPartyStart, pPartyEnd *string

	err := row.Scan(
		&r.ID, &r.AmenityID, &r.CommunityID, &r.ResidentID,
		&date, &setupStart, &setupEnd, &partyStart, &partyEnd,
		&r.EventName, &r.IsPrivate, &r.GuestCount, &r.SpecialRequirements,
		&status, &r.Policy.JanitorialRequired, &r.Policy.ApprovalRequired,
		&totalFee, &totalDeposit, &cancellationFee,
		&modStatus, &pDate, &pSetupStart, &pSetupEnd, &pPartyStart, &pPartyEnd,
		&r.DamageAssessmentPending, &r.DamageAssessed, &damageStatus,
		&damageAmount, &damageCharge,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.Schedule, err = parseSchedule(date, setupStart, setupEnd, partyStart, partyEnd); err != nil {
		return nil, err
	}
	if pDate != nil && pSetupStart != nil && pSetupEnd != nil && pPartyStart != nil && pPartyEnd != nil {
		p, err := parseSchedule(*pDate, *pSetupStart, *pSetupEnd, *pPartyStart, *pPartyEnd)
		if err != nil {
			return nil, err
		}
		r.Proposed = &p
	}

	if r.Status, err = ParseStatus(status); err != nil {
		return nil, err
	}
	if r.TotalFee, err = decimal.NewFromString(totalFee); err != nil {
		return nil, err
	}
	if r.TotalDeposit, err = decimal.NewFromString(totalDeposit); err != nil {
		return nil, err
	}
	if r.CancellationFee, err = parseDecimalPtr(cancellationFee); err != nil {
		return nil, err
	}
	if r.DamageChargeAmount, err = parseDecimalPtr(damageAmount); err != nil {
		return nil, err
	}
	if r.DamageCharge, err = parseDecimalPtr(damageCharge); err != nil {
		return nil, err
	}
	if modStatus != nil {
		r.ModificationStatus = ModificationStatus(*modStatus)
	}
	if damageStatus != nil {
		r.DamageAssessmentStatus = DamageAssessmentStatus(*damageStatus)
	}
	return &r, nil
}

func parseSchedule(date, setupStart, setupEnd, partyStart, partyEnd string) (Schedule, error) {
	var s Schedule
	var err error
	if s.Date, err = ParseDate(date); err != nil {
		return s, err
	}
	for _, f := range []struct {
		dst *TimeOfDay
		src string
	}{
		{&s.SetupTimeStart, setupStart},
		{&s.SetupTimeEnd, setupEnd},
		{&s.PartyTimeStart, partyStart},
		{&s.PartyTimeEnd, partyEnd},
	} {
		if *f.dst, err = ParseTimeOfDay(f.src); err != nil {
			return s, err
		}
	}
	return s, nil
}

func parseDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	return strPtr(d.StringFixed(2))
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strPtr(s string) *string { return &s }

// mapWriteErr turns the overlap exclusion constraint into the same error the
// service-level check produces.
func mapWriteErr(err error) error {
	if err != nil && db.IsExclusionViolation(err) {
		return newError(CodeSlotConflict, "the requested time overlaps another reservation")
	}
	return err
}
