// Package audit records order.placed events into the append-only
// order_events table and keeps the order status cache warm.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/widodo/go-cart-checkout/internal/checkout"
	"github.com/widodo/go-cart-checkout/internal/kafka"
	"github.com/widodo/go-cart-checkout/internal/redisx"
)

type Repo struct {
	DB *pgxpool.Pool
}

// Record is idempotent: replays of the same event id are dropped by the
// unique constraint.
func (r *Repo) Record(ctx context.Context, eventID, orderID, eventType string, payload []byte) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_events(event_id, order_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, orderID, eventType, payload)
	return err
}

type Service struct {
	Repo  *Repo
	Redis *redis.Client
}

// HandleOrderPlaced is mounted as the consumer handler for order.placed.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != checkout.EventOrderPlaced {
		return nil
	}

	// dedup by event id before touching storage
	dkey := fmt.Sprintf(redisx.KeyDedup, "audit", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafka.UnwrapPayload[checkout.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Repo.Record(ctx, env.EventID, p.OrderID, env.EventType, env.Payload); err != nil {
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	status := map[string]any{
		"order_id":    p.OrderID,
		"status":      "PLACED",
		"total_cents": p.TotalCents,
		"placed_at":   p.PlacedAt,
	}
	skey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	_ = s.Redis.Set(ctx, skey, kafka.MustMarshal(status), redisx.TTLStatusCache).Err()
	return nil
}
