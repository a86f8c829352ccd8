package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p, err := s.Create(ctx, "widget", 250, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	byName, err := s.GetByName(ctx, "widget")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DuplicateName(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "widget", 250, 7)
	require.NoError(t, err)
	_, err = s.Create(ctx, "widget", 100, 1)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_ListSortedByName(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Create(ctx, name, 100, 1)
		require.NoError(t, err)
	}
	ps, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, "alpha", ps[0].Name)
	assert.Equal(t, "mid", ps[1].Name)
	assert.Equal(t, "zeta", ps[2].Name)
}

func TestMemoryStore_AdjustStock(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p, err := s.Create(ctx, "widget", 250, 5)
	require.NoError(t, err)

	got, err := s.AdjustStock(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	got, err = s.AdjustStock(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	_, err = s.AdjustStock(ctx, p.ID, -7)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 6, insufficient.Available)
	assert.Equal(t, 7, insufficient.Requested)

	// failed adjustment left stock alone
	got, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	_, err = s.AdjustStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p, err := s.Create(ctx, "widget", 250, 5)
	require.NoError(t, err)
	other, err := s.Create(ctx, "gadget", 100, 5)
	require.NoError(t, err)

	got, err := s.Update(ctx, p.ID, "widget-pro", 300)
	require.NoError(t, err)
	assert.Equal(t, "widget-pro", got.Name)
	assert.Equal(t, 300, got.PriceCents)
	assert.Equal(t, 5, got.Stock, "update never touches stock")

	_, err = s.Update(ctx, other.ID, "widget-pro", 100)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
