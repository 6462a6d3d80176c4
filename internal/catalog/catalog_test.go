package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      market.Product
		wantErr bool
		check   func(t *testing.T, p market.Product)
	}{
		{
			name: "defaults applied",
			in:   market.Product{SellerID: "s1", Name: "shirt", PriceCents: 1500},
			check: func(t *testing.T, p market.Product) {
				require.Equal(t, DefaultCategory, p.Category)
				require.Equal(t, DefaultStock, p.Stock)
			},
		},
		{
			name: "explicit values kept",
			in:   market.Product{SellerID: "s1", Name: "ring", PriceCents: 900, Category: "jewellery", Stock: 7},
			check: func(t *testing.T, p market.Product) {
				require.Equal(t, "jewellery", p.Category)
				require.Equal(t, 7, p.Stock)
			},
		},
		{name: "missing name", in: market.Product{SellerID: "s1", PriceCents: 100}, wantErr: true},
		{name: "missing price", in: market.Product{SellerID: "s1", Name: "x"}, wantErr: true},
		{name: "missing seller", in: market.Product{Name: "x", PriceCents: 100}, wantErr: true},
		{name: "unknown category", in: market.Product{SellerID: "s1", Name: "x", PriceCents: 100, Category: "vehicles"}, wantErr: true},
		{name: "negative stock", in: market.Product{SellerID: "s1", Name: "x", PriceCents: 100, Stock: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidProduct)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestMemoryCatalog_CreateAndLookup(t *testing.T) {
	c := NewMemoryCatalog()

	created, err := c.Create(context.Background(), market.Product{
		SellerID: "s1", Name: "shirt", PriceCents: 1500,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := c.Lookup(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	_, err = c.Lookup(context.Background(), "ghost")
	require.ErrorIs(t, err, market.ErrProductNotFound)
}

func TestMemoryCatalog_ListFiltersAndPagination(t *testing.T) {
	c := NewMemoryCatalog()
	ctx := context.Background()

	mk := func(name, cat string, price int) {
		_, err := c.Create(ctx, market.Product{SellerID: "s1", Name: name, Category: cat, PriceCents: price})
		require.NoError(t, err)
	}
	mk("a", "men", 100)
	mk("b", "men", 300)
	mk("c", "women", 200)
	mk("d", "men", 500)

	got, total, err := c.List(ctx, Filter{Category: "men"})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, got, 3)

	got, total, err = c.List(ctx, Filter{MinPriceCents: 150, MaxPriceCents: 350})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, got, 2)

	// newest first, two per page
	got, total, err = c.List(ctx, Filter{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, got, 2)
	require.Equal(t, "d", got[0].Name)

	got, _, err = c.List(ctx, Filter{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryCatalog_ListBySeller(t *testing.T) {
	c := NewMemoryCatalog()
	ctx := context.Background()

	_, err := c.Create(ctx, market.Product{SellerID: "s1", Name: "a", PriceCents: 100})
	require.NoError(t, err)
	_, err = c.Create(ctx, market.Product{SellerID: "s2", Name: "b", PriceCents: 100})
	require.NoError(t, err)

	got, err := c.ListBySeller(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Name)
}
