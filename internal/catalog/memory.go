package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

// MemoryCatalog backs tests and single-node mode. Stock in these records is
// only the seed value; the inventory store is the source of truth once the
// system is running.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]market.Product
	order    []string // insertion order, newest listing first
}

var _ Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: map[string]market.Product{}}
}

// Seed inserts a product with a fixed id. Test helper.
func (c *MemoryCatalog) Seed(p market.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
	c.order = append(c.order, p.ID)
}

func (c *MemoryCatalog) Lookup(_ context.Context, productID string) (market.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return market.Product{}, market.ErrProductNotFound
	}
	return p, nil
}

func (c *MemoryCatalog) Create(_ context.Context, p market.Product) (market.Product, error) {
	p, err := Normalize(p)
	if err != nil {
		return market.Product{}, err
	}
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
	c.order = append(c.order, p.ID)
	return p, nil
}

func (c *MemoryCatalog) List(_ context.Context, f Filter) ([]market.Product, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var all []market.Product
	for i := len(c.order) - 1; i >= 0; i-- {
		p := c.products[c.order[i]]
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPriceCents > 0 && p.PriceCents < f.MinPriceCents {
			continue
		}
		if f.MaxPriceCents > 0 && p.PriceCents > f.MaxPriceCents {
			continue
		}
		all = append(all, p)
	}
	total := len(all)

	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		from := (page - 1) * f.Limit
		if from > len(all) {
			from = len(all)
		}
		to := from + f.Limit
		if to > len(all) {
			to = len(all)
		}
		all = all[from:to]
	}
	return all, total, nil
}

func (c *MemoryCatalog) ListBySeller(_ context.Context, sellerID string) ([]market.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []market.Product
	for _, p := range c.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}
