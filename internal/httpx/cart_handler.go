package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/widodo/go-cart-checkout/internal/auth"
	"github.com/widodo/go-cart-checkout/internal/cart"
	"github.com/widodo/go-cart-checkout/internal/checkout"
	"github.com/widodo/go-cart-checkout/internal/kafka"
	"github.com/widodo/go-cart-checkout/internal/ledger"
	"github.com/widodo/go-cart-checkout/internal/redisx"
)

// Publisher is what the handler needs from the kafka producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type CartHandler struct {
	Engine   *checkout.Engine
	Auth     *auth.Service
	Producer Publisher
	Redis    *redis.Client
	Service  string
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireUser)
		r.Post("/cart/items", h.addItem)
		r.Get("/cart", h.listCart)
		r.Delete("/cart/items/{productID}", h.removeItem)
		r.Post("/cart/checkout", h.checkout)
	})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeErr(w, http.StatusBadRequest, "missing product_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	line, err := h.Engine.AddToCart(ctx, user.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) listCart(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Engine.Cart.ListFor(ctx, user.ID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	removed, err := h.Engine.RemoveFromCart(ctx, user.ID, chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.Checkout(ctx, user.ID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	h.publishOrderPlaced(r, order)

	if h.Redis != nil {
		status := map[string]any{
			"order_id":    order.ID,
			"status":      "PLACED",
			"total_cents": order.TotalCents,
			"placed_at":   order.CreatedAt,
		}
		key := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
		_ = h.Redis.Set(ctx, key, kafka.MustMarshal(status), redisx.TTLStatusCache).Err()
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *CartHandler) publishOrderPlaced(r *http.Request, order ledger.Order) {
	if h.Producer == nil {
		return
	}
	items := make([]checkout.PlacedItem, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, checkout.PlacedItem{
			ProductID:  l.ProductID,
			Qty:        l.Quantity,
			PriceCents: l.PriceCents,
		})
	}
	ev := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     checkout.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: order.ID,
		Payload: kafka.MustMarshal(checkout.OrderPlacedPayload{
			OrderID:    order.ID,
			UserID:     order.UserID,
			Items:      items,
			TotalCents: order.TotalCents,
			PlacedAt:   order.CreatedAt,
		}),
	}
	h.Producer.Publish(checkout.PartitionKey(order.ID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(checkout.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
