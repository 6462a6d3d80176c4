package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

// PostgresStore mutates products.stock with single-statement conditional
// updates, so the check and the write happen in the same step and two
// concurrent checkouts can never both consume the last units.
type PostgresStore struct{ DB *pgxpool.Pool }

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Decrement(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return &market.InvalidQuantityError{ProductID: productID, Qty: qty}
	}

	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// No row touched: either the product does not exist or stock was short.
	// The read is only for the error detail; the guard above stays the sole
	// enforcement point.
	avail, err := s.Stock(ctx, productID)
	if err != nil {
		return err
	}
	return &market.InsufficientStockError{ProductID: productID, Requested: qty, Available: avail}
}

func (s *PostgresStore) Increment(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, &market.InvalidQuantityError{ProductID: productID, Qty: qty}
	}
	var stock int
	err := s.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING stock`, productID, qty).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, market.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return stock, nil
}

func (s *PostgresStore) Stock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := s.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, market.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return stock, nil
}
