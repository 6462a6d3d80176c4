package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

type PostgresLedger struct{ DB *pgxpool.Pool }

var _ Ledger = (*PostgresLedger)(nil)

func (l *PostgresLedger) Append(ctx context.Context, lines []market.OrderLine) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ln := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_lines(id, order_id, buyer_id, seller_id, product_id, qty, unit_price_cents, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			ln.ID, ln.OrderID, ln.BuyerID, ln.SellerID, ln.ProductID, ln.Qty, ln.UnitPriceCents, ln.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (l *PostgresLedger) OrderIDsForBuyer(ctx context.Context, buyerID string) ([]string, error) {
	return l.orderIDs(ctx, `
		SELECT order_id FROM order_lines
		WHERE buyer_id = $1
		GROUP BY order_id
		ORDER BY min(created_at) DESC`, buyerID)
}

func (l *PostgresLedger) OrderIDsForSeller(ctx context.Context, sellerID string) ([]string, error) {
	return l.orderIDs(ctx, `
		SELECT order_id FROM order_lines
		WHERE seller_id = $1
		GROUP BY order_id
		ORDER BY min(created_at) DESC`, sellerID)
}

func (l *PostgresLedger) orderIDs(ctx context.Context, query, scopeID string) ([]string, error) {
	rows, err := l.DB.Query(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list order ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) LinesForOrder(ctx context.Context, orderID, scopeID string, scopeRole market.Role) ([]market.OrderLine, error) {
	scopeCol := "buyer_id"
	if scopeRole == market.RoleSeller {
		scopeCol = "seller_id"
	}
	rows, err := l.DB.Query(ctx, `
		SELECT id, order_id, buyer_id, seller_id, product_id, qty, unit_price_cents, created_at
		FROM order_lines
		WHERE order_id = $1 AND `+scopeCol+` = $2
		ORDER BY created_at, id`, orderID, scopeID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	out := []market.OrderLine{}
	for rows.Next() {
		var ln market.OrderLine
		if err := rows.Scan(&ln.ID, &ln.OrderID, &ln.BuyerID, &ln.SellerID,
			&ln.ProductID, &ln.Qty, &ln.UnitPriceCents, &ln.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}
