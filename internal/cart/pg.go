package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/widodo/go-cart-checkout/internal/postgres"
)

type PGStore struct {
	DB *pgxpool.Pool
}

const lineCols = `id, user_id, product_id, quantity, subtotal_cents, created_at`

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.SubtotalCents, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, ErrLineNotFound
	}
	return l, err
}

func (s *PGStore) Upsert(ctx context.Context, userID, productID string, qtyDelta, priceCents int) (Line, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	row := q.QueryRow(ctx, `
		INSERT INTO cart_lines(id, user_id, product_id, quantity, subtotal_cents)
		VALUES ($1, $2, $3, $4, $4 * $5)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET quantity       = cart_lines.quantity + EXCLUDED.quantity,
		    subtotal_cents = (cart_lines.quantity + EXCLUDED.quantity) * $5
		RETURNING `+lineCols,
		uuid.NewString(), userID, productID, qtyDelta, priceCents)
	return scanLine(row)
}

func (s *PGStore) Get(ctx context.Context, userID, productID string) (Line, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	return scanLine(q.QueryRow(ctx,
		`SELECT `+lineCols+` FROM cart_lines WHERE user_id=$1 AND product_id=$2`,
		userID, productID))
}

func (s *PGStore) ListFor(ctx context.Context, userID string) ([]Line, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	rows, err := q.Query(ctx,
		`SELECT `+lineCols+` FROM cart_lines WHERE user_id=$1 ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.SubtotalCents, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PGStore) RemoveLine(ctx context.Context, userID, productID string) (Line, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	return scanLine(q.QueryRow(ctx, `
		DELETE FROM cart_lines WHERE user_id=$1 AND product_id=$2
		RETURNING `+lineCols,
		userID, productID))
}

func (s *PGStore) ClearFor(ctx context.Context, userID string) error {
	q := postgres.QuerierFrom(ctx, s.DB)
	_, err := q.Exec(ctx, `DELETE FROM cart_lines WHERE user_id=$1`, userID)
	return err
}
