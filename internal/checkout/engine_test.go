package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widodo/go-cart-checkout/internal/cart"
	"github.com/widodo/go-cart-checkout/internal/catalog"
	"github.com/widodo/go-cart-checkout/internal/ledger"
)

func newTestEngine() *Engine {
	return &Engine{
		Catalog: catalog.NewMemoryStore(),
		Cart:    cart.NewMemoryStore(),
		Ledger:  ledger.NewMemoryStore(),
		Runner:  &MutexRunner{},
	}
}

func mustProduct(t *testing.T, e *Engine, name string, priceCents, stock int) catalog.Product {
	t.Helper()
	p, err := e.Catalog.Create(context.Background(), name, priceCents, stock)
	require.NoError(t, err)
	return p
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)

	for _, qty := range []int{0, -1} {
		_, err := e.AddToCart(context.Background(), "u1", p.ID, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	// nothing was reserved
	got, err := e.Catalog.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	e := newTestEngine()
	_, err := e.AddToCart(context.Background(), "u1", "no-such-id", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddToCart_MergesLines(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 300, 20)
	ctx := context.Background()

	_, err := e.AddToCart(ctx, "u1", p.ID, 2)
	require.NoError(t, err)
	line, err := e.AddToCart(ctx, "u1", p.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 5*300, line.SubtotalCents)

	lines, err := e.Cart.ListFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	got, err := e.Catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Stock, "stock debited by exactly the merged quantity")
}

func TestAddToCart_InsufficientStock(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)

	_, err := e.AddToCart(context.Background(), "u1", p.ID, 11)
	var insufficient *catalog.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 11, insufficient.Requested)

	got, err := e.Catalog.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestRemoveFromCart_RestoresStock(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)
	ctx := context.Background()

	_, err := e.AddToCart(ctx, "u1", p.ID, 4)
	require.NoError(t, err)

	removed, err := e.RemoveFromCart(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed.Quantity)

	got, err := e.Catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	lines, err := e.Cart.ListFor(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRemoveFromCart_NoLine(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)

	_, err := e.RemoveFromCart(context.Background(), "u1", p.ID)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newTestEngine()
	_, err := e.Checkout(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_FreezesOrderAndClearsCart(t *testing.T) {
	e := newTestEngine()
	pa := mustProduct(t, e, "alpha", 200, 10)
	pb := mustProduct(t, e, "beta", 500, 10)
	ctx := context.Background()

	_, err := e.AddToCart(ctx, "u1", pa.ID, 3)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "u1", pb.ID, 2)
	require.NoError(t, err)

	order, err := e.Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, 3*200+2*500, order.TotalCents)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, ledger.OrderLine{ProductID: pa.ID, Quantity: 3, PriceCents: 200}, order.Lines[0])
	assert.Equal(t, ledger.OrderLine{ProductID: pb.ID, Quantity: 2, PriceCents: 500}, order.Lines[1])
	assert.False(t, order.CreatedAt.IsZero())

	lines, err := e.Cart.ListFor(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// stock stays debited: checkout finalizes, it does not restore
	got, err := e.Catalog.Get(ctx, pa.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	orders, err := e.Orders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

// failingLedger rejects every append, simulating a storage failure at the
// worst possible moment.
type failingLedger struct {
	ledger.Store
}

var errAppend = errors.New("ledger append failed")

func (f *failingLedger) Append(context.Context, ledger.Order) (ledger.Order, error) {
	return ledger.Order{}, errAppend
}

func TestCheckout_AtomicOnAppendFailure(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)
	ctx := context.Background()

	_, err := e.AddToCart(ctx, "u1", p.ID, 4)
	require.NoError(t, err)

	e.Ledger = &failingLedger{Store: e.Ledger}
	_, err = e.Checkout(ctx, "u1")
	require.ErrorIs(t, err, errAppend)

	// no partial clear, no stock change
	lines, err := e.Cart.ListFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)

	got, err := e.Catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)
}

func TestScenario_ReserveReleaseCheckout(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)
	ctx := context.Background()
	stock := func() int {
		got, err := e.Catalog.Get(ctx, p.ID)
		require.NoError(t, err)
		return got.Stock
	}

	line, err := e.AddToCart(ctx, "u1", p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, stock())
	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, 800, line.SubtotalCents)

	line, err = e.AddToCart(ctx, "u1", p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, stock())
	assert.Equal(t, 7, line.Quantity)
	assert.Equal(t, 1400, line.SubtotalCents)

	_, err = e.RemoveFromCart(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stock())

	_, err = e.AddToCart(ctx, "u1", p.ID, 11)
	var insufficient *catalog.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 11, insufficient.Requested)

	_, err = e.AddToCart(ctx, "u1", p.ID, 10)
	require.NoError(t, err)
	order, err := e.Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2000, order.TotalCents)
	assert.Equal(t, 0, stock())

	lines, err := e.Cart.ListFor(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	orders, err := e.Orders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// conflictRunner fails the first attempt with a conflict-flagged error and
// delegates afterwards.
type conflictRunner struct {
	inner    Runner
	failures int
	attempts int
}

type fakeConflict struct{}

func (fakeConflict) Error() string    { return "serialization failure" }
func (fakeConflict) TxConflict() bool { return true }

func (r *conflictRunner) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	r.attempts++
	if r.attempts <= r.failures {
		return fakeConflict{}
	}
	return r.inner.Atomic(ctx, fn)
}

func TestConflictRetriedOnce(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)

	runner := &conflictRunner{inner: e.Runner, failures: 1}
	e.Runner = runner

	line, err := e.AddToCart(context.Background(), "u1", p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 2, runner.attempts)
}

func TestConflictSurfacedAfterRetry(t *testing.T) {
	e := newTestEngine()
	p := mustProduct(t, e, "widget", 200, 10)

	runner := &conflictRunner{inner: e.Runner, failures: 2}
	e.Runner = runner

	_, err := e.AddToCart(context.Background(), "u1", p.ID, 2)
	require.Error(t, err)
	assert.True(t, isTxConflict(err))
	assert.Equal(t, 2, runner.attempts, "exactly one retry")
}
