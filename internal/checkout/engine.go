// Package checkout implements the inventory-backed order workflow: stock is
// reserved the moment an item enters the cart, released when it leaves, and
// finalized into an append-only order at checkout.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/widodo/go-cart-checkout/internal/cart"
	"github.com/widodo/go-cart-checkout/internal/catalog"
	"github.com/widodo/go-cart-checkout/internal/ledger"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Runner executes fn as one atomic unit: either every store mutation inside
// commits, or none is observable. The Postgres runner opens a transaction;
// MutexRunner serializes everything for the in-memory stores.
type Runner interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// MutexRunner gives the in-memory stores the same mutual-exclusion
// discipline the database gets from row locks: one operation at a time.
type MutexRunner struct {
	mu sync.Mutex
}

func (r *MutexRunner) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

type Engine struct {
	Catalog catalog.Store
	Cart    cart.Store
	Ledger  ledger.Store
	Runner  Runner
}

// AddToCart reserves stock for the requested quantity and merges it into the
// user's line for the product. The stock check is against the incremental
// request; earlier adds already debited their share.
func (e *Engine) AddToCart(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
	if quantity <= 0 {
		return cart.Line{}, ErrInvalidQuantity
	}

	var line cart.Line
	err := e.atomic(ctx, func(ctx context.Context) error {
		product, err := e.Catalog.Get(ctx, productID)
		if err != nil {
			return err
		}
		// AdjustStock holds the product lock and rejects the whole unit
		// when the decrement would go negative.
		if _, err := e.Catalog.AdjustStock(ctx, productID, -quantity); err != nil {
			return err
		}
		line, err = e.Cart.Upsert(ctx, userID, productID, quantity, product.PriceCents)
		return err
	})
	if err != nil {
		return cart.Line{}, err
	}
	return line, nil
}

// RemoveFromCart drops the user's line for the product and returns its
// reserved quantity to stock, as one unit.
func (e *Engine) RemoveFromCart(ctx context.Context, userID, productID string) (cart.Line, error) {
	var removed cart.Line
	err := e.atomic(ctx, func(ctx context.Context) error {
		var err error
		removed, err = e.Cart.RemoveLine(ctx, userID, productID)
		if err != nil {
			return err
		}
		_, err = e.Catalog.AdjustStock(ctx, productID, removed.Quantity)
		return err
	})
	if err != nil {
		return cart.Line{}, err
	}
	return removed, nil
}

// Checkout freezes the user's cart into one order and clears the cart.
// Stock is untouched: it was debited at add time, checkout only finalizes
// the reservation. If the ledger append fails the cart survives intact.
func (e *Engine) Checkout(ctx context.Context, userID string) (ledger.Order, error) {
	var order ledger.Order
	err := e.atomic(ctx, func(ctx context.Context) error {
		lines, err := e.Cart.ListFor(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		draft := ledger.Order{
			UserID:    userID,
			Lines:     make([]ledger.OrderLine, 0, len(lines)),
			CreatedAt: time.Now().UTC(),
		}
		for _, l := range lines {
			draft.Lines = append(draft.Lines, ledger.OrderLine{
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				PriceCents: l.SubtotalCents / l.Quantity,
			})
			draft.TotalCents += l.SubtotalCents
		}

		order, err = e.Ledger.Append(ctx, draft)
		if err != nil {
			return err
		}
		return e.Cart.ClearFor(ctx, userID)
	})
	if err != nil {
		return ledger.Order{}, err
	}
	return order, nil
}

// Restock adjusts stock outside the cart flow (replenishment, corrections).
// Goes through the same gate so the non-negativity invariant holds.
func (e *Engine) Restock(ctx context.Context, productID string, delta int) (catalog.Product, error) {
	var product catalog.Product
	err := e.atomic(ctx, func(ctx context.Context) error {
		var err error
		product, err = e.Catalog.AdjustStock(ctx, productID, delta)
		return err
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return product, nil
}

func (e *Engine) Orders(ctx context.Context, userID string) ([]ledger.Order, error) {
	return e.Ledger.ListFor(ctx, userID)
}

func (e *Engine) Order(ctx context.Context, id string) (ledger.Order, error) {
	return e.Ledger.Get(ctx, id)
}

// atomic runs fn once, and once more if the storage layer reported a
// serialization conflict. Domain errors are never retried.
func (e *Engine) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	err := e.Runner.Atomic(ctx, fn)
	if err != nil && isTxConflict(err) {
		err = e.Runner.Atomic(ctx, fn)
	}
	return err
}

type txConflicter interface {
	TxConflict() bool
}

func isTxConflict(err error) bool {
	var c txConflicter
	return errors.As(err, &c) && c.TxConflict()
}
