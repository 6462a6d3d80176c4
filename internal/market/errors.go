package market

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder      = errors.New("order has no lines")
	ErrProductNotFound = errors.New("product not found")
	ErrUnauthorized    = errors.New("unauthorized")

	// ErrInternal is what callers see when stock was already committed but the
	// order lines could not be persisted. The real cause is logged for
	// operators, never surfaced.
	ErrInternal = errors.New("internal error")
)

// InsufficientStockError reports the line that could not be reserved along
// with the stock observed at the moment the decrement was attempted.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested=%d available=%d",
		e.ProductID, e.Requested, e.Available)
}

type InvalidQuantityError struct {
	ProductID string
	Qty       int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid qty %d for product %s", e.Qty, e.ProductID)
}
