// Package checkout turns a cart's line list into either a fully committed
// order or no order at all. Stock is reserved per line against the inventory
// store; there is no cross-product transaction, so a failure partway through
// compensates every reservation already made before reporting the error.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/adiwangsa/go-marketplace/internal/catalog"
	"github.com/adiwangsa/go-marketplace/internal/inventory"
	"github.com/adiwangsa/go-marketplace/internal/ledger"
	"github.com/adiwangsa/go-marketplace/internal/market"
)

const (
	defaultAppendAttempts = 3
	defaultAppendBackoff  = 100 * time.Millisecond
)

type Engine struct {
	Catalog catalog.Catalog
	Stock   inventory.Store
	Orders  ledger.Ledger

	// Retry policy for persisting lines once stock is committed. Zero values
	// take the defaults.
	AppendAttempts int
	AppendBackoff  time.Duration

	// Clock override for tests.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// PlaceOrder runs one checkout: validate, reserve stock line by line in input
// order, then persist all order lines under one fresh order id. Any
// reservation failure rolls back the reservations made so far, so a rejected
// checkout leaves stock exactly where it was.
func (e *Engine) PlaceOrder(ctx context.Context, req market.CheckoutRequest) (*market.PlacedOrder, error) {
	if req.Role != market.RoleBuyer {
		return nil, market.ErrUnauthorized
	}
	if len(req.Lines) == 0 {
		return nil, market.ErrEmptyOrder
	}
	for _, ln := range req.Lines {
		if ln.Qty <= 0 {
			return nil, &market.InvalidQuantityError{ProductID: ln.ProductID, Qty: ln.Qty}
		}
	}

	comp := &compensator{store: e.Stock}
	products := make([]market.Product, 0, len(req.Lines))

	for _, ln := range req.Lines {
		p, err := e.Catalog.Lookup(ctx, ln.ProductID)
		if err != nil {
			comp.rollback(ctx)
			if errors.Is(err, market.ErrProductNotFound) {
				return nil, fmt.Errorf("product %s: %w", ln.ProductID, market.ErrProductNotFound)
			}
			return nil, err
		}
		if err := e.Stock.Decrement(ctx, ln.ProductID, ln.Qty); err != nil {
			comp.rollback(ctx)
			return nil, err
		}
		comp.add(ln.ProductID, ln.Qty)
		products = append(products, p)
	}

	orderID := uuid.NewString()
	now := e.now()
	lines := make([]market.OrderLine, 0, len(req.Lines))
	total := 0
	for i, ln := range req.Lines {
		p := products[i]
		lines = append(lines, market.OrderLine{
			ID:             uuid.NewString(),
			OrderID:        orderID,
			BuyerID:        req.BuyerID,
			SellerID:       p.SellerID,
			ProductID:      p.ID,
			Qty:            ln.Qty,
			UnitPriceCents: p.PriceCents,
			CreatedAt:      now,
		})
		total += p.PriceCents * ln.Qty
	}

	if err := e.appendWithRetry(ctx, lines); err != nil {
		// Stock is already committed. Losing the lines here would leave
		// decrements with no matching order, which is a data-integrity
		// incident: log everything for operators, tell the caller nothing
		// specific, and never pretend partial success.
		log.Printf("CONSISTENCY FAULT: order %s for buyer %s: stock committed but lines not persisted: %v",
			orderID, req.BuyerID, err)
		return nil, market.ErrInternal
	}

	return &market.PlacedOrder{OrderID: orderID, Lines: lines, TotalCents: total}, nil
}

func (e *Engine) appendWithRetry(ctx context.Context, lines []market.OrderLine) error {
	attempts := e.AppendAttempts
	if attempts <= 0 {
		attempts = defaultAppendAttempts
	}
	backoff := e.AppendBackoff
	if backoff <= 0 {
		backoff = defaultAppendBackoff
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = e.Orders.Append(ctx, lines); err == nil {
			return nil
		}
		if i < attempts-1 {
			log.Printf("order line append failed (attempt %d/%d): %v", i+1, attempts, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w (ctx: %v)", err, ctx.Err())
			}
		}
	}
	return err
}

// compensator collects successful reservations and puts them back on
// failure. rollback is a no-op the second time, so replaying it cannot
// double-increment stock.
type compensator struct {
	store    inventory.Store
	reserved []reservation
	done     bool
}

type reservation struct {
	productID string
	qty       int
}

func (c *compensator) add(productID string, qty int) {
	c.reserved = append(c.reserved, reservation{productID: productID, qty: qty})
}

func (c *compensator) rollback(ctx context.Context) {
	if c.done {
		return
	}
	c.done = true
	// The failure that got us here may be the request's own cancellation or
	// timeout; stock restoration must still run, so detach from it.
	ctx = context.WithoutCancel(ctx)
	for _, r := range c.reserved {
		if _, err := c.store.Increment(ctx, r.productID, r.qty); err != nil {
			// Individually safe but not atomic as a group; a failed
			// compensation is operator territory.
			log.Printf("rollback failed for product %s qty %d: %v", r.productID, r.qty, err)
		}
	}
}
