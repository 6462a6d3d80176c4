package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

type PostgresCatalog struct{ DB *pgxpool.Pool }

var _ Catalog = (*PostgresCatalog)(nil)

const productCols = `id, seller_id, name, description, category, stock, price_cents, created_at, updated_at`

func scanProduct(row pgx.Row) (market.Product, error) {
	var p market.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Category,
		&p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (c *PostgresCatalog) Lookup(ctx context.Context, productID string) (market.Product, error) {
	p, err := scanProduct(c.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Product{}, market.ErrProductNotFound
	}
	if err != nil {
		return market.Product{}, fmt.Errorf("lookup product: %w", err)
	}
	return p, nil
}

func (c *PostgresCatalog) Create(ctx context.Context, p market.Product) (market.Product, error) {
	p, err := Normalize(p)
	if err != nil {
		return market.Product{}, err
	}
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err = c.DB.Exec(ctx, `
		INSERT INTO products(id, seller_id, name, description, category, stock, price_cents, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Stock, p.PriceCents, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return market.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (c *PostgresCatalog) List(ctx context.Context, f Filter) ([]market.Product, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.MinPriceCents > 0 {
		args = append(args, f.MinPriceCents)
		where += fmt.Sprintf(" AND price_cents >= $%d", len(args))
	}
	if f.MaxPriceCents > 0 {
		args = append(args, f.MaxPriceCents)
		where += fmt.Sprintf(" AND price_cents <= $%d", len(args))
	}

	var total int
	if err := c.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productCols + ` FROM products ` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (page-1)*f.Limit)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := c.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (c *PostgresCatalog) ListBySeller(ctx context.Context, sellerID string) ([]market.Product, error) {
	rows, err := c.DB.Query(ctx,
		`SELECT `+productCols+` FROM products WHERE seller_id = $1 ORDER BY created_at DESC, id`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
