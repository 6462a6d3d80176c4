package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adiwangsa/go-marketplace/internal/catalog"
	"github.com/adiwangsa/go-marketplace/internal/inventory"
	"github.com/adiwangsa/go-marketplace/internal/ledger"
	"github.com/adiwangsa/go-marketplace/internal/market"
)

type fixture struct {
	cat    *catalog.MemoryCatalog
	stock  *inventory.MemoryStore
	orders *ledger.MemoryLedger
	engine *Engine
}

func newFixture() *fixture {
	cat := catalog.NewMemoryCatalog()
	stock := inventory.NewMemoryStore()
	orders := ledger.NewMemoryLedger()
	return &fixture{
		cat:    cat,
		stock:  stock,
		orders: orders,
		engine: &Engine{Catalog: cat, Stock: stock, Orders: orders},
	}
}

func (f *fixture) addProduct(id, sellerID string, stock, priceCents int) {
	f.cat.Seed(market.Product{ID: id, SellerID: sellerID, Name: id, Category: "others", PriceCents: priceCents})
	f.stock.Put(id, stock)
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	n, err := f.stock.Stock(context.Background(), id)
	require.NoError(t, err)
	return n
}

func buyerReq(lines ...market.CheckoutLine) market.CheckoutRequest {
	return market.CheckoutRequest{BuyerID: "buyer-1", Role: market.RoleBuyer, Lines: lines}
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)
	f.addProduct("p2", "seller-2", 10, 1200)

	placed, err := f.engine.PlaceOrder(context.Background(), buyerReq(
		market.CheckoutLine{ProductID: "p1", Qty: 1},
		market.CheckoutLine{ProductID: "p2", Qty: 2},
	))
	require.NoError(t, err)
	require.NotEmpty(t, placed.OrderID)
	require.Len(t, placed.Lines, 2)
	require.Equal(t, 500+2*1200, placed.TotalCents)

	for _, ln := range placed.Lines {
		require.Equal(t, placed.OrderID, ln.OrderID)
		require.Equal(t, "buyer-1", ln.BuyerID)
		require.False(t, ln.CreatedAt.IsZero())
	}
	require.Equal(t, "seller-1", placed.Lines[0].SellerID)
	require.Equal(t, 500, placed.Lines[0].UnitPriceCents)
	require.Equal(t, "seller-2", placed.Lines[1].SellerID)
	require.Equal(t, 1200, placed.Lines[1].UnitPriceCents)

	require.Equal(t, 9, f.stockOf(t, "p1"))
	require.Equal(t, 8, f.stockOf(t, "p2"))

	// one order id, two lines, visible to the buyer
	ids, err := f.orders.OrderIDsForBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	require.Equal(t, []string{placed.OrderID}, ids)

	lines, err := f.orders.LinesForOrder(context.Background(), placed.OrderID, "buyer-1", market.RoleBuyer)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}

func TestPlaceOrder_EmptyOrder(t *testing.T) {
	f := newFixture()
	_, err := f.engine.PlaceOrder(context.Background(), buyerReq())
	require.ErrorIs(t, err, market.ErrEmptyOrder)
}

func TestPlaceOrder_NonBuyerRejected(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)

	_, err := f.engine.PlaceOrder(context.Background(), market.CheckoutRequest{
		BuyerID: "seller-1",
		Role:    market.RoleSeller,
		Lines:   []market.CheckoutLine{{ProductID: "p1", Qty: 1}},
	})
	require.ErrorIs(t, err, market.ErrUnauthorized)
	require.Equal(t, 10, f.stockOf(t, "p1"))
}

func TestPlaceOrder_NonPositiveQtyRejectedBeforeAnyReservation(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)
	f.addProduct("p2", "seller-1", 10, 500)

	_, err := f.engine.PlaceOrder(context.Background(), buyerReq(
		market.CheckoutLine{ProductID: "p1", Qty: 2},
		market.CheckoutLine{ProductID: "p2", Qty: 0},
	))
	var iqe *market.InvalidQuantityError
	require.ErrorAs(t, err, &iqe)
	require.Equal(t, "p2", iqe.ProductID)

	// validation failures never touch stock, even on earlier lines
	require.Equal(t, 10, f.stockOf(t, "p1"))
	require.Equal(t, 0, f.orders.Len())
}

func TestPlaceOrder_ProductNotFoundRollsBack(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)

	_, err := f.engine.PlaceOrder(context.Background(), buyerReq(
		market.CheckoutLine{ProductID: "p1", Qty: 2},
		market.CheckoutLine{ProductID: "ghost", Qty: 1},
	))
	require.ErrorIs(t, err, market.ErrProductNotFound)
	require.Contains(t, err.Error(), "ghost")

	require.Equal(t, 10, f.stockOf(t, "p1"))
	require.Equal(t, 0, f.orders.Len())
}

// Scenario: [(P1, qty 2), (P2, qty 100)] where P2 has stock 10. P1's
// reservation succeeds first, then P2 fails, and P1 must come back.
func TestPlaceOrder_MidwayFailureRestoresEarlierLines(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 50, 500)
	f.addProduct("p2", "seller-2", 10, 300)

	_, err := f.engine.PlaceOrder(context.Background(), buyerReq(
		market.CheckoutLine{ProductID: "p1", Qty: 2},
		market.CheckoutLine{ProductID: "p2", Qty: 100},
	))

	var ise *market.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, "p2", ise.ProductID)
	require.Equal(t, 100, ise.Requested)
	require.Equal(t, 10, ise.Available)

	require.Equal(t, 50, f.stockOf(t, "p1"))
	require.Equal(t, 10, f.stockOf(t, "p2"))
	require.Equal(t, 0, f.orders.Len())
}

// Scenario: stock 5, two concurrent checkouts for 3 each. Exactly one may
// win; the loser sees the then-current stock; nothing is oversold.
func TestPlaceOrder_ConcurrentCheckoutsSameProduct(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 5, 500)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.PlaceOrder(context.Background(),
				buyerReq(market.CheckoutLine{ProductID: "p1", Qty: 3}))
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var ise *market.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		require.Equal(t, 2, ise.Available)
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 2, f.stockOf(t, "p1"))

	ids, err := f.orders.OrderIDsForBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

// Sum of decremented stock must equal the sum of quantities persisted under
// the order id.
func TestPlaceOrder_DecrementsMatchPersistedLines(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 20, 100)
	f.addProduct("p2", "seller-1", 20, 100)
	f.addProduct("p3", "seller-2", 20, 100)

	placed, err := f.engine.PlaceOrder(context.Background(), buyerReq(
		market.CheckoutLine{ProductID: "p1", Qty: 4},
		market.CheckoutLine{ProductID: "p2", Qty: 5},
		market.CheckoutLine{ProductID: "p3", Qty: 6},
	))
	require.NoError(t, err)

	decremented := (20 - f.stockOf(t, "p1")) + (20 - f.stockOf(t, "p2")) + (20 - f.stockOf(t, "p3"))
	persisted := 0
	lines, err := f.orders.LinesForOrder(context.Background(), placed.OrderID, "buyer-1", market.RoleBuyer)
	require.NoError(t, err)
	for _, ln := range lines {
		persisted += ln.Qty
	}
	require.Equal(t, decremented, persisted)
	require.Equal(t, 15, persisted)
}

func TestPlaceOrder_PriceSnapshotAtReservationTime(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 700)

	placed, err := f.engine.PlaceOrder(context.Background(),
		buyerReq(market.CheckoutLine{ProductID: "p1", Qty: 1}))
	require.NoError(t, err)

	// later price changes must not touch persisted lines
	f.cat.Seed(market.Product{ID: "p1", SellerID: "seller-1", Name: "p1", Category: "others", PriceCents: 999})

	lines, err := f.orders.LinesForOrder(context.Background(), placed.OrderID, "buyer-1", market.RoleBuyer)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 700, lines[0].UnitPriceCents)
}

func TestPlaceOrder_AppendRetriesThenSucceeds(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)

	flaky := ledger.NewFlakyLedger(2, errors.New("connection reset"))
	f.engine.Orders = flaky
	f.engine.AppendBackoff = time.Millisecond

	placed, err := f.engine.PlaceOrder(context.Background(),
		buyerReq(market.CheckoutLine{ProductID: "p1", Qty: 1}))
	require.NoError(t, err)
	require.Equal(t, 1, flaky.Len())
	require.Equal(t, 9, f.stockOf(t, "p1"))
	require.NotEmpty(t, placed.OrderID)
}

// When persistence keeps failing after stock is committed, the caller gets a
// generic internal error and no partial success.
func TestPlaceOrder_ConsistencyFaultIsGeneric(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)

	flaky := ledger.NewFlakyLedger(100, errors.New("disk on fire"))
	f.engine.Orders = flaky
	f.engine.AppendAttempts = 2
	f.engine.AppendBackoff = time.Millisecond

	_, err := f.engine.PlaceOrder(context.Background(),
		buyerReq(market.CheckoutLine{ProductID: "p1", Qty: 1}))
	require.ErrorIs(t, err, market.ErrInternal)
	require.NotContains(t, err.Error(), "disk on fire")
}

// cancellingStore honors its context the way the postgres store does, and
// cancels the request when asked for failOn, simulating a caller timeout
// striking mid-checkout.
type cancellingStore struct {
	inventory.Store
	cancel context.CancelFunc
	failOn string
}

func (s *cancellingStore) Decrement(ctx context.Context, productID string, qty int) error {
	if productID == s.failOn {
		s.cancel()
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Decrement(ctx, productID, qty)
}

func (s *cancellingStore) Increment(ctx context.Context, productID string, qty int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Store.Increment(ctx, productID, qty)
}

// A caller timeout partway through reservation is a failed checkout and must
// restore stock like any other failure, even though the request context is
// already dead by the time compensation runs.
func TestPlaceOrder_CallerCancellationStillRollsBack(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)
	f.addProduct("p2", "seller-2", 10, 300)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Stock = &cancellingStore{Store: f.stock, cancel: cancel, failOn: "p2"}

	_, err := f.engine.PlaceOrder(ctx, buyerReq(
		market.CheckoutLine{ProductID: "p1", Qty: 4},
		market.CheckoutLine{ProductID: "p2", Qty: 1},
	))
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 10, f.stockOf(t, "p1"))
	require.Equal(t, 10, f.stockOf(t, "p2"))
	require.Equal(t, 0, f.orders.Len())
}

func TestRollback_ReplayIsNoOp(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)
	require.NoError(t, f.stock.Decrement(context.Background(), "p1", 4))

	comp := &compensator{store: f.stock}
	comp.add("p1", 4)

	comp.rollback(context.Background())
	require.Equal(t, 10, f.stockOf(t, "p1"))

	comp.rollback(context.Background())
	require.Equal(t, 10, f.stockOf(t, "p1"))
}

func TestQueries_SellerScope(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", "seller-1", 10, 500)
	queries := &Queries{Orders: f.orders}

	placed, err := f.engine.PlaceOrder(context.Background(),
		buyerReq(market.CheckoutLine{ProductID: "p1", Qty: 1}))
	require.NoError(t, err)

	// the selling seller sees its line
	lines, err := queries.GetOrder(context.Background(), placed.OrderID, "seller-1", market.RoleSeller)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	// an uninvolved seller gets an empty view, not an error
	lines, err = queries.GetOrder(context.Background(), placed.OrderID, "seller-2", market.RoleSeller)
	require.NoError(t, err)
	require.Empty(t, lines)

	ids, err := queries.OrderIDsForSeller(context.Background(), "seller-1")
	require.NoError(t, err)
	require.Equal(t, []string{placed.OrderID}, ids)
}
