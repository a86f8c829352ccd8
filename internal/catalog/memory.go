package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the catalog in process memory. Used by tests and by
// single-node setups without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]*Product)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return *p, nil
}

func (s *MemoryStore) GetByName(_ context.Context, name string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Name == name {
			return *p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, name string, priceCents, stock int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Name == name {
			return Product{}, ErrAlreadyExists
		}
	}
	now := time.Now().UTC()
	p := &Product{
		ID:         uuid.NewString(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.products[p.ID] = p
	return *p, nil
}

func (s *MemoryStore) Update(_ context.Context, id, name string, priceCents int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	for _, other := range s.products {
		if other.ID != id && other.Name == name {
			return Product{}, ErrAlreadyExists
		}
	}
	p.Name = name
	p.PriceCents = priceCents
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (s *MemoryStore) AdjustStock(_ context.Context, id string, delta int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if p.Stock+delta < 0 {
		return Product{}, &InsufficientStockError{ProductID: id, Available: p.Stock, Requested: -delta}
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}
