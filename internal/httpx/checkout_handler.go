package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/adiwangsa/go-marketplace/internal/checkout"
	kafkax "github.com/adiwangsa/go-marketplace/internal/kafka"
	"github.com/adiwangsa/go-marketplace/internal/market"
	"github.com/adiwangsa/go-marketplace/internal/redisx"
)

type CheckoutHandler struct {
	Engine         *checkout.Engine
	Redis          *redis.Client
	PlacedEvents   *kafkax.Producer
	RejectedEvents *kafkax.Producer
	Service        string
}

type CheckoutReq struct {
	ExternalID string                `json:"external_id,omitempty"`
	Items      []market.CheckoutLine `json:"items"`
}

type CheckoutResp struct {
	OrderID    string          `json:"order_id"`
	Lines      []OrderLineResp `json:"lines"`
	TotalCents int             `json:"total_cents"`
	Idempotent bool            `json:"idempotent,omitempty"`
}

type OrderLineResp struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	SellerID       string    `json:"seller_id"`
	ProductID      string    `json:"product_id"`
	Qty            int       `json:"qty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.With(WithPrincipal).Post("/checkout", h.placeOrder)
}

func toLineResps(lines []market.OrderLine) []OrderLineResp {
	out := make([]OrderLineResp, 0, len(lines))
	for _, ln := range lines {
		out = append(out, OrderLineResp{
			ID: ln.ID, OrderID: ln.OrderID, SellerID: ln.SellerID, ProductID: ln.ProductID,
			Qty: ln.Qty, UnitPriceCents: ln.UnitPriceCents, CreatedAt: ln.CreatedAt,
		})
	}
	return out
}

func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Idempotency fast-path: a retried checkout with the same external_id
	// gets the order id it already created instead of a second order.
	if req.ExternalID != "" && h.Redis != nil {
		idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.ExternalID)
		if orderID, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
			writeJSON(w, http.StatusOK, CheckoutResp{OrderID: orderID, Idempotent: true})
			return
		}
	}

	placed, err := h.Engine.PlaceOrder(ctx, market.CheckoutRequest{
		BuyerID:    p.ID,
		Role:       p.Role,
		ExternalID: req.ExternalID,
		Lines:      req.Items,
	})
	if err != nil {
		h.rejectOrder(w, r, p, err)
		return
	}

	if req.ExternalID != "" && h.Redis != nil {
		idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.ExternalID)
		_ = h.Redis.Set(ctx, idemKey, placed.OrderID, redisx.TTLIdempotency).Err()
	}

	h.publishPlaced(r, p, placed)
	writeJSON(w, http.StatusCreated, CheckoutResp{
		OrderID:    placed.OrderID,
		Lines:      toLineResps(placed.Lines),
		TotalCents: placed.TotalCents,
	})
}

func (h *CheckoutHandler) rejectOrder(w http.ResponseWriter, r *http.Request, p Principal, err error) {
	var insufficient *market.InsufficientStockError
	var invalidQty *market.InvalidQuantityError
	switch {
	case errors.As(err, &insufficient):
		h.publishRejected(r, p, "OUT_OF_STOCK", &market.RejectedLine{
			ProductID: insufficient.ProductID,
			Requested: insufficient.Requested,
			Available: insufficient.Available,
		})
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.Is(err, market.ErrProductNotFound):
		h.publishRejected(r, p, "PRODUCT_NOT_FOUND", nil)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidQty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, market.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "buyers only")
	default:
		// includes market.ErrInternal: detail already logged, keep it generic
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *CheckoutHandler) publishPlaced(r *http.Request, p Principal, placed *market.PlacedOrder) {
	if h.PlacedEvents == nil {
		return
	}
	lines := make([]market.LinePlaced, 0, len(placed.Lines))
	for _, ln := range placed.Lines {
		lines = append(lines, market.LinePlaced{
			ProductID: ln.ProductID, SellerID: ln.SellerID,
			Qty: ln.Qty, UnitPriceCents: ln.UnitPriceCents,
		})
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: placed.OrderID,
	}
	ev.Payload = kafkax.MustMarshal(market.OrderPlacedPayload{
		OrderID:    placed.OrderID,
		BuyerID:    p.ID,
		Lines:      lines,
		TotalCents: placed.TotalCents,
	})
	h.PlacedEvents.Publish(market.PartitionKey(placed.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *CheckoutHandler) publishRejected(r *http.Request, p Principal, reason string, line *market.RejectedLine) {
	if h.RejectedEvents == nil {
		return
	}
	ev := market.Envelope{
		EventID:      uuid.NewString(),
		EventType:    market.EventOrderRejected,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     h.Service,
		TraceID:      r.Header.Get("X-Request-Id"),
	}
	ev.Payload = kafkax.MustMarshal(market.OrderRejectedPayload{
		BuyerID: p.ID,
		Reason:  reason,
		Line:    line,
	})
	h.RejectedEvents.Publish(market.PartitionKey(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
