package inventory

import (
	"context"
	"sync"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

// MemoryStore keeps stock in a map with one mutex per product, so decrements
// and increments on the same product serialize while different products stay
// independent. Used in tests and in single-node mode.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	stock int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: map[string]*entry{}}
}

// Put creates or replaces a product's stock record.
func (s *MemoryStore) Put(productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = &entry{stock: stock}
}

func (s *MemoryStore) get(productID string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.products[productID]
	return e, ok
}

func (s *MemoryStore) Decrement(_ context.Context, productID string, qty int) error {
	if qty <= 0 {
		return &market.InvalidQuantityError{ProductID: productID, Qty: qty}
	}
	e, ok := s.get(productID)
	if !ok {
		return market.ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stock < qty {
		return &market.InsufficientStockError{ProductID: productID, Requested: qty, Available: e.stock}
	}
	e.stock -= qty
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, &market.InvalidQuantityError{ProductID: productID, Qty: qty}
	}
	e, ok := s.get(productID)
	if !ok {
		return 0, market.ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stock += qty
	return e.stock, nil
}

func (s *MemoryStore) Stock(_ context.Context, productID string) (int, error) {
	e, ok := s.get(productID)
	if !ok {
		return 0, market.ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stock, nil
}
