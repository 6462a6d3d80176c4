package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced   = "OrderPlaced"
	EventOrderRejected = "OrderRejected"
	EventStockRestock  = "StockRestocked"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads per event ----

type LinePlaced struct {
	ProductID      string `json:"product_id"`
	SellerID       string `json:"seller_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

type OrderPlacedPayload struct {
	OrderID    string       `json:"order_id"`
	BuyerID    string       `json:"buyer_id"`
	Lines      []LinePlaced `json:"lines"`
	TotalCents int          `json:"total_cents"`
}

type RejectedLine struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type OrderRejectedPayload struct {
	BuyerID string        `json:"buyer_id"`
	Reason  string        `json:"reason"` // OUT_OF_STOCK | PRODUCT_NOT_FOUND
	Line    *RejectedLine `json:"line,omitempty"`
}

type StockRestockedPayload struct {
	ProductID string `json:"product_id"`
	SellerID  string `json:"seller_id"`
	Qty       int    `json:"qty"`
	NewStock  int    `json:"new_stock"`
}
