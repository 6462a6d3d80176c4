// Package catalog owns product records. Stock lives in the same products
// table but is only ever mutated through the inventory store.
package catalog

import (
	"context"
	"errors"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

var Categories = []string{"men", "women", "kids", "jewellery", "footware", "others"}

const (
	DefaultCategory = "others"
	DefaultStock    = 1
)

var ErrInvalidProduct = errors.New("invalid product")

type Filter struct {
	Category      string
	MinPriceCents int
	MaxPriceCents int
	Page          int // 1-based
	Limit         int // 0 = no limit
}

type Catalog interface {
	// Lookup returns the product record for price/seller snapshots at
	// checkout. market.ErrProductNotFound when missing.
	Lookup(ctx context.Context, productID string) (market.Product, error)

	Create(ctx context.Context, p market.Product) (market.Product, error)
	List(ctx context.Context, f Filter) ([]market.Product, int, error)
	ListBySeller(ctx context.Context, sellerID string) ([]market.Product, error)
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Normalize applies the defaults and rejects what cannot be defaulted.
func Normalize(p market.Product) (market.Product, error) {
	if p.Name == "" || p.PriceCents <= 0 || p.SellerID == "" {
		return p, ErrInvalidProduct
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if !ValidCategory(p.Category) {
		return p, ErrInvalidProduct
	}
	if p.Stock == 0 {
		p.Stock = DefaultStock
	}
	if p.Stock < 0 {
		return p, ErrInvalidProduct
	}
	return p, nil
}
