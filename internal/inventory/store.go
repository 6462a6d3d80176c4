package inventory

import "context"

// Store holds per-product stock. Decrement is the primitive everything else
// leans on for correctness: "subtract qty iff current stock >= qty" as one
// indivisible step against the record. A plain read-compare-write in the
// caller would lose updates under concurrent checkouts.
type Store interface {
	// Decrement reserves qty units. Returns market.InsufficientStockError
	// (with the stock observed at execution time) when stock < qty, and
	// market.ErrProductNotFound for an unknown product. qty must be > 0.
	Decrement(ctx context.Context, productID string, qty int) error

	// Increment adds qty units (restock, or rollback of a reservation).
	// Unconditional, but serialized against concurrent decrements on the
	// same product. Returns the new stock value.
	Increment(ctx context.Context, productID string, qty int) (int, error)

	// Stock reads the current stock value.
	Stock(ctx context.Context, productID string) (int, error)
}
