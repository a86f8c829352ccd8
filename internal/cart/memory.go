package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps cart lines per user in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	lines map[string][]*Line // userID -> lines
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lines: make(map[string][]*Line)}
}

func (s *MemoryStore) Upsert(_ context.Context, userID, productID string, qtyDelta, priceCents int) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines[userID] {
		if l.ProductID == productID {
			l.Quantity += qtyDelta
			l.SubtotalCents = l.Quantity * priceCents
			return *l, nil
		}
	}
	l := &Line{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProductID:     productID,
		Quantity:      qtyDelta,
		SubtotalCents: qtyDelta * priceCents,
		CreatedAt:     time.Now().UTC(),
	}
	s.lines[userID] = append(s.lines[userID], l)
	return *l, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, productID string) (Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines[userID] {
		if l.ProductID == productID {
			return *l, nil
		}
	}
	return Line{}, ErrLineNotFound
}

func (s *MemoryStore) ListFor(_ context.Context, userID string) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, 0, len(s.lines[userID]))
	for _, l := range s.lines[userID] {
		out = append(out, *l)
	}
	return out, nil
}

func (s *MemoryStore) RemoveLine(_ context.Context, userID, productID string) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.lines[userID]
	for i, l := range lines {
		if l.ProductID == productID {
			s.lines[userID] = append(lines[:i], lines[i+1:]...)
			return *l, nil
		}
	}
	return Line{}, ErrLineNotFound
}

func (s *MemoryStore) ClearFor(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, userID)
	return nil
}
