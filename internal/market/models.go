package market

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type Product struct {
	ID          string
	SellerID    string
	Name        string
	Description string
	Category    string
	Stock       int
	PriceCents  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine is one product row of an order. Rows sharing an OrderID form the
// order; there is no separate orders row, the id is just the grouping key.
// Lines are written once and never updated.
type OrderLine struct {
	ID             string
	OrderID        string
	BuyerID        string
	SellerID       string
	ProductID      string
	Qty            int
	UnitPriceCents int
	CreatedAt      time.Time
}

func (l OrderLine) TotalCents() int { return l.UnitPriceCents * l.Qty }

type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// CheckoutRequest is what the cart hands over at checkout time. ExternalID is
// optional and only used for the idempotency fast-path.
type CheckoutRequest struct {
	BuyerID    string
	Role       Role
	ExternalID string
	Lines      []CheckoutLine
}

type PlacedOrder struct {
	OrderID    string
	Lines      []OrderLine
	TotalCents int
}
