package checkout

import (
	"context"

	"github.com/adiwangsa/go-marketplace/internal/ledger"
	"github.com/adiwangsa/go-marketplace/internal/market"
)

// Queries rebuilds order views from the ledger. A seller only ever sees
// their own lines of an order; asking for someone else's order yields an
// empty result, not an error, so order ids leak nothing.
type Queries struct {
	Orders ledger.Ledger
}

func (q *Queries) OrderIDsForBuyer(ctx context.Context, buyerID string) ([]string, error) {
	return q.Orders.OrderIDsForBuyer(ctx, buyerID)
}

func (q *Queries) OrderIDsForSeller(ctx context.Context, sellerID string) ([]string, error) {
	return q.Orders.OrderIDsForSeller(ctx, sellerID)
}

func (q *Queries) GetOrder(ctx context.Context, orderID, scopeID string, scopeRole market.Role) ([]market.OrderLine, error) {
	return q.Orders.LinesForOrder(ctx, orderID, scopeID, scopeRole)
}
