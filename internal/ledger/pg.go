package ledger

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

func (s *PGStore) Append(ctx context.Context, order Order) (Order, error) {
	q := postgres.QuerierFrom(ctx, s.DB)

	order.ID = uuid.NewString()
	_, err := q.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_cents, created_at)
		VALUES ($1, $2, $3, $4)`,
		order.ID, order.UserID, order.TotalCents, order.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	for _, l := range order.Lines {
		_, err = q.Exec(ctx, `
			INSERT INTO order_lines(order_id, product_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4)`,
			order.ID, l.ProductID, l.Quantity, l.PriceCents)
		if err != nil {
			return Order{}, err
		}
	}
	return order, nil
}

func (s *PGStore) Get(ctx context.Context, id string) (Order, error) {
	q := postgres.QuerierFrom(ctx, s.DB)

	var o Order
	err := q.QueryRow(ctx,
		`SELECT id, user_id, total_cents, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Lines, err = s.linesFor(ctx, q, o.ID)
	return o, err
}

func (s *PGStore) ListFor(ctx context.Context, userID string) ([]Order, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	rows, err := q.Query(ctx, `
		SELECT id, user_id, total_cents, created_at FROM orders
		WHERE user_id=$1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = s.linesFor(ctx, q, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PGStore) linesFor(ctx context.Context, q postgres.Querier, orderID string) ([]OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT product_id, quantity, price_cents FROM order_lines
		WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
