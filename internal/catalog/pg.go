package catalog

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

const productCols = `id, name, price_cents, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (s *PGStore) Get(ctx context.Context, id string) (Product, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	return scanProduct(q.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (s *PGStore) GetByName(ctx context.Context, name string) (Product, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	return scanProduct(q.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE name=$1`, name))
}

func (s *PGStore) List(ctx context.Context) ([]Product, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	rows, err := q.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, name string, priceCents, stock int) (Product, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	row := q.QueryRow(ctx, `
		INSERT INTO products(id, name, price_cents, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productCols,
		uuid.NewString(), name, priceCents, stock)
	p, err := scanProduct(row)
	if postgres.IsUniqueViolation(err, "products_name_key") {
		return Product{}, ErrAlreadyExists
	}
	return p, err
}

func (s *PGStore) Update(ctx context.Context, id, name string, priceCents int) (Product, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	row := q.QueryRow(ctx, `
		UPDATE products SET name=$2, price_cents=$3, updated_at=now()
		WHERE id=$1
		RETURNING `+productCols,
		id, name, priceCents)
	p, err := scanProduct(row)
	if postgres.IsUniqueViolation(err, "products_name_key") {
		return Product{}, ErrAlreadyExists
	}
	return p, err
}

// AdjustStock locks the product row for the rest of the surrounding
// transaction, so the check and the write cannot interleave with a
// concurrent adjustment of the same product.
func (s *PGStore) AdjustStock(ctx context.Context, id string, delta int) (Product, error) {
	q := postgres.QuerierFrom(ctx, s.DB)

	var stock int
	err := q.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	if stock+delta < 0 {
		return Product{}, &InsufficientStockError{ProductID: id, Available: stock, Requested: -delta}
	}

	row := q.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id=$1
		RETURNING `+productCols,
		id, delta)
	return scanProduct(row)
}
