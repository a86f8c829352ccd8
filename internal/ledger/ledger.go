package ledger

import (
	"context"
	"errors"
	"time"
)

// OrderLine is a frozen snapshot of a cart line at checkout time. Later
// changes to the live product never touch it.
type OrderLine struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int    `json:"price_cents"`
}

// Order is immutable once appended.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int         `json:"total_cents"`
	CreatedAt  time.Time   `json:"created_at"`
}

var ErrNotFound = errors.New("order not found")

// Store is append-only: no update or delete is exposed.
type Store interface {
	// Append assigns the order's identity and persists it with its lines.
	Append(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	// ListFor returns the user's orders ascending by creation time.
	ListFor(ctx context.Context, userID string) ([]Order, error)
}
