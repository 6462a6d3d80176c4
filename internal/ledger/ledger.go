// Package ledger is the durable, append-only record of order lines. An order
// has no row of its own: it is the set of lines stamped with one order id.
package ledger

import (
	"context"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

type Ledger interface {
	// Append writes all lines of one checkout. Either every line lands or
	// none do.
	Append(ctx context.Context, lines []market.OrderLine) error

	// OrderIDsForBuyer returns the distinct order ids with at least one line
	// for the buyer, most recent first.
	OrderIDsForBuyer(ctx context.Context, buyerID string) ([]string, error)

	// OrderIDsForSeller is the seller-side view: a multi-seller order shows
	// up for every seller that has a line in it.
	OrderIDsForSeller(ctx context.Context, sellerID string) ([]string, error)

	// LinesForOrder returns the lines of orderID visible to the scope: all of
	// the buyer's lines, or only the seller's own lines. Nothing visible is
	// an empty slice, not an error.
	LinesForOrder(ctx context.Context, orderID, scopeID string, scopeRole market.Role) ([]market.OrderLine, error)
}
