package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

// MemoryLedger is the in-memory backend used by tests and single-node mode.
type MemoryLedger struct {
	mu    sync.RWMutex
	lines []market.OrderLine
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// FlakyLedger fails the first n Appends, then behaves normally. Test hook
// for the consistency-fault path.
type FlakyLedger struct {
	*MemoryLedger
	mu        sync.Mutex
	failsLeft int
	failErr   error
}

func NewFlakyLedger(fails int, err error) *FlakyLedger {
	return &FlakyLedger{MemoryLedger: NewMemoryLedger(), failsLeft: fails, failErr: err}
}

func (f *FlakyLedger) Append(ctx context.Context, lines []market.OrderLine) error {
	f.mu.Lock()
	if f.failsLeft > 0 {
		f.failsLeft--
		f.mu.Unlock()
		return f.failErr
	}
	f.mu.Unlock()
	return f.MemoryLedger.Append(ctx, lines)
}

func (l *MemoryLedger) Append(_ context.Context, lines []market.OrderLine) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, lines...)
	return nil
}

// Len reports the number of stored lines. Test helper.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

func (l *MemoryLedger) OrderIDsForBuyer(_ context.Context, buyerID string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.distinctIDs(func(ln market.OrderLine) bool { return ln.BuyerID == buyerID }), nil
}

func (l *MemoryLedger) OrderIDsForSeller(_ context.Context, sellerID string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.distinctIDs(func(ln market.OrderLine) bool { return ln.SellerID == sellerID }), nil
}

func (l *MemoryLedger) distinctIDs(match func(market.OrderLine) bool) []string {
	seen := map[string]int{} // order id -> append position of its first line
	for i, ln := range l.lines {
		if !match(ln) {
			continue
		}
		if _, ok := seen[ln.OrderID]; !ok {
			seen[ln.OrderID] = i
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	// most recent first
	sort.Slice(ids, func(a, b int) bool {
		return seen[ids[a]] > seen[ids[b]]
	})
	return ids
}

func (l *MemoryLedger) LinesForOrder(_ context.Context, orderID, scopeID string, scopeRole market.Role) ([]market.OrderLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []market.OrderLine{}
	for _, ln := range l.lines {
		if ln.OrderID != orderID {
			continue
		}
		switch scopeRole {
		case market.RoleSeller:
			if ln.SellerID != scopeID {
				continue
			}
		default:
			if ln.BuyerID != scopeID {
				continue
			}
		}
		out = append(out, ln)
	}
	return out, nil
}
