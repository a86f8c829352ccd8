package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("product not found")
	ErrAlreadyExists = errors.New("product already exists")
)

// InsufficientStockError reports how much stock was available against what
// the caller asked for.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// Store holds the product catalog. AdjustStock is the only operation allowed
// to mutate stock; implementations must keep the read-check-write atomic so
// stock never goes negative.
type Store interface {
	Get(ctx context.Context, id string) (Product, error)
	GetByName(ctx context.Context, name string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, name string, priceCents, stock int) (Product, error)
	Update(ctx context.Context, id, name string, priceCents int) (Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (Product, error)
}
