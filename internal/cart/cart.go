package cart

import (
	"context"
	"errors"
	"time"
)

// Line is one pending cart entry. There is at most one line per
// (user, product) pair; repeated adds merge into it.
type Line struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	SubtotalCents int       `json:"subtotal_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

var ErrLineNotFound = errors.New("cart line not found")

type Store interface {
	// Upsert adds qtyDelta to the (userID, productID) line, creating it if
	// absent, and recomputes the subtotal as newQuantity * priceCents.
	Upsert(ctx context.Context, userID, productID string, qtyDelta, priceCents int) (Line, error)
	Get(ctx context.Context, userID, productID string) (Line, error)
	// ListFor returns the user's lines in insertion order, a snapshot at
	// call time.
	ListFor(ctx context.Context, userID string) ([]Line, error)
	// RemoveLine deletes and returns the line, or ErrLineNotFound.
	RemoveLine(ctx context.Context, userID, productID string) (Line, error)
	ClearFor(ctx context.Context, userID string) error
}
