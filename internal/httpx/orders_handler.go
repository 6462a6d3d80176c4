package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/adiwangsa/go-marketplace/internal/checkout"
	"github.com/adiwangsa/go-marketplace/internal/market"
	"github.com/adiwangsa/go-marketplace/internal/redisx"
)

// OrdersHandler serves buyer and seller order views. Buyers read under
// /orders, sellers under /seller/orders; both go through the same query
// service with their own scope.
type OrdersHandler struct {
	Queries *checkout.Queries
	Redis   *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(g chi.Router) {
		g.Use(WithPrincipal)
		g.Get("/orders", h.listBuyerOrders)
		g.Get("/orders/{id}", h.getBuyerOrder)
		g.Get("/seller/orders", h.listSellerOrders)
		g.Get("/seller/orders/{id}", h.getSellerOrder)
	})
}

type orderIDsResp struct {
	Orders []string `json:"orders"`
}

func (h *OrdersHandler) listBuyerOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if p.Role != market.RoleBuyer {
		writeError(w, http.StatusForbidden, "buyers only")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ids, err := h.Queries.OrderIDsForBuyer(ctx, p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, orderIDsResp{Orders: ids})
}

func (h *OrdersHandler) listSellerOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if p.Role != market.RoleSeller {
		writeError(w, http.StatusForbidden, "sellers only")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ids, err := h.Queries.OrderIDsForSeller(ctx, p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, orderIDsResp{Orders: ids})
}

func (h *OrdersHandler) getBuyerOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, market.RoleBuyer)
}

func (h *OrdersHandler) getSellerOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, market.RoleSeller)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request, want market.Role) {
	p, _ := PrincipalFrom(r.Context())
	if p.Role != want {
		writeError(w, http.StatusForbidden, string(want)+"s only")
		return
	}
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first; an order never changes once written
	key := fmt.Sprintf(redisx.KeyOrderView, orderID, p.Role, p.ID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	lines, err := h.Queries.GetOrder(ctx, orderID, p.ID, p.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Empty when nothing is visible to this scope. Not 404: that would
	// confirm the order exists for someone else.
	body, _ := json.Marshal(map[string]any{"lines": toLineResps(lines)})
	if h.Redis != nil && len(lines) > 0 {
		_ = h.Redis.Set(ctx, key, body, redisx.TTLOrderView).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
