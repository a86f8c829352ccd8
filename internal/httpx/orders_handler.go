package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/widodo/go-cart-checkout/internal/auth"
	"github.com/widodo/go-cart-checkout/internal/checkout"
	"github.com/widodo/go-cart-checkout/internal/ledger"
	"github.com/widodo/go-cart-checkout/internal/redisx"
)

type OrdersHandler struct {
	Engine *checkout.Engine
	Auth   *auth.Service
	Redis  *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireUser)
		r.Get("/orders", h.list)
		r.Get("/orders/{id}", h.get)
	})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Engine.Orders(ctx, user.ID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if orders == nil {
		orders = []ledger.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Engine.Order(ctx, orderID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	// other users' orders do not exist as far as this caller knows
	if order.UserID != user.ID {
		writeErr(w, http.StatusNotFound, ledger.ErrNotFound.Error())
		return
	}

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"order":  order,
				"status": json.RawMessage(s),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}
