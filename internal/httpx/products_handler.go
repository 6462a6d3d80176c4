package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adiwangsa/go-marketplace/internal/catalog"
	"github.com/adiwangsa/go-marketplace/internal/inventory"
	"github.com/adiwangsa/go-marketplace/internal/market"
)

type ProductsHandler struct {
	Catalog catalog.Catalog
	Stock   inventory.Store
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/sellers/{id}/products", h.listSellerProducts)
	r.Group(func(g chi.Router) {
		g.Use(WithPrincipal)
		g.Post("/products", h.addProduct)
		g.Post("/products/{id}/restock", h.restock)
	})
}

type productResp struct {
	ID          string `json:"id"`
	SellerID    string `json:"seller_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	PriceCents  int    `json:"price_cents"`
}

func toProductResp(p market.Product) productResp {
	return productResp{
		ID: p.ID, SellerID: p.SellerID, Name: p.Name, Description: p.Description,
		Category: p.Category, Stock: p.Stock, PriceCents: p.PriceCents,
	}
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Category:      q.Get("category"),
		MinPriceCents: atoiOr(q.Get("min_price"), 0),
		MaxPriceCents: atoiOr(q.Get("max_price"), 0),
		Page:          atoiOr(q.Get("page"), 1),
		Limit:         atoiOr(q.Get("limit"), 0),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, total, err := h.Catalog.List(ctx, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	totalPages := 1
	if f.Limit > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":       out,
		"total_products": total,
		"total_pages":    totalPages,
		"current_page":   f.Page,
	})
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Lookup(ctx, id)
	if errors.Is(err, market.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// stock from the inventory store, the catalog record may lag
	if stock, err := h.Stock.Stock(ctx, id); err == nil {
		p.Stock = stock
	}
	writeJSON(w, http.StatusOK, toProductResp(p))
}

func (h *ProductsHandler) listSellerProducts(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Catalog.ListBySeller(ctx, sellerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

type addProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	PriceCents  int    `json:"price_cents"`
}

func (h *ProductsHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if p.Role != market.RoleSeller {
		writeError(w, http.StatusForbidden, "sellers only")
		return
	}

	var req addProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	created, err := h.Catalog.Create(ctx, market.Product{
		SellerID:    p.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Stock:       req.Stock,
		PriceCents:  req.PriceCents,
	})
	if errors.Is(err, catalog.ErrInvalidProduct) {
		writeError(w, http.StatusBadRequest, "product name and positive price are required, category must be known")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, toProductResp(created))
}

type restockReq struct {
	Qty int `json:"qty"`
}

func (h *ProductsHandler) restock(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if p.Role != market.RoleSeller {
		writeError(w, http.StatusForbidden, "sellers only")
		return
	}
	id := chi.URLParam(r, "id")

	var req restockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "qty must be a positive integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	product, err := h.Catalog.Lookup(ctx, id)
	if errors.Is(err, market.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if product.SellerID != p.ID {
		writeError(w, http.StatusForbidden, "not your product")
		return
	}

	newStock, err := h.Stock.Increment(ctx, id, req.Qty)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": id, "stock": newStock})
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
