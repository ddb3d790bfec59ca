package amenity

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
SELECT id, community_id, name, capacity, reservation_fee::text, deposit::text,
       janitorial_required, approval_required, active
FROM amenities
`

func (r *Repository) GetByID(ctx context.Context, id string) (*Amenity, error) {
	return scanOne(r.db.QueryRow(ctx, selectColumns+`WHERE id = $1`, id))
}

func (r *Repository) ListByCommunity(ctx context.Context, communityID string) ([]Amenity, error) {
	rows, err := r.db.Query(ctx, selectColumns+`WHERE community_id = $1 AND active ORDER BY name ASC`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Amenity
	for rows.Next() {
		a, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Get loads an amenity inside a transaction. The row is read with FOR SHARE so
// the policy cannot change underneath a reservation being created from it.
func Get(ctx context.Context, tx pgx.Tx, id string) (*Amenity, error) {
	return scanOne(tx.QueryRow(ctx, selectColumns+`WHERE id = $1 FOR SHARE`, id))
}

func scanOne(row pgx.Row) (*Amenity, error) {
	var a Amenity
	var fee, deposit string
	if err := row.Scan(
		&a.ID, &a.CommunityID, &a.Name, &a.Capacity, &fee, &deposit,
		&a.JanitorialRequired, &a.ApprovalRequired, &a.Active,
	); err != nil {
		return nil, err
	}
	var err error
	if a.ReservationFee, err = decimal.NewFromString(fee); err != nil {
		return nil, err
	}
	if a.Deposit, err = decimal.NewFromString(deposit); err != nil {
		return nil, err
	}
	return &a, nil
}
