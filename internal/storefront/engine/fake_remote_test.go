package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/storefront/remote"
)

var errNetwork = errors.New("connection reset by peer")

// fakeRemote is an in-memory backend with the same pool rules as the real one
type fakeRemote struct {
	mu       sync.Mutex
	products map[uint]Product
	lines    []cart.Line
	nextID   uint

	calls     int
	fetches   int
	failAdd   error
	failFetch error

	// when set, AddLine signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func newFakeRemote(products ...Product) *fakeRemote {
	f := &fakeRemote{products: map[uint]Product{}, nextID: 1}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeRemote) setLevels(id uint, l inventory.Levels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.Levels = l
	f.products[id] = p
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRemote) block() {
	f.started = make(chan struct{}, 1)
	f.release = make(chan struct{})
}

func (f *fakeRemote) FetchCart(ctx context.Context) (*cart.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.fetches++
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	return f.snapshot(), nil
}

func (f *fakeRemote) AddLine(ctx context.Context, productID uint, quantity int, pool inventory.Pool) (*cart.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	started, release := f.started, f.release
	f.mu.Unlock()

	if release != nil {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != nil {
		return nil, f.failAdd
	}

	p, ok := f.products[productID]
	if !ok {
		return nil, &remote.APIError{Status: http.StatusNotFound, Message: "product not found"}
	}

	idx := -1
	for i, l := range f.lines {
		if l.ProductID == productID && l.Pool() == pool {
			idx = i
		}
	}
	held := 0
	if idx >= 0 {
		held = f.lines[idx].Quantity
	}
	if held+quantity > p.Levels.Capacity(pool) {
		return nil, &remote.APIError{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("insufficient stock for %s", p.Name),
		}
	}

	if idx >= 0 {
		f.lines[idx].Quantity += quantity
	} else {
		f.lines = append(f.lines, cart.Line{ID: f.nextID, ProductID: productID, Quantity: quantity, FreshMode: pool.FreshMode()})
		f.nextID++
	}
	return f.snapshot(), nil
}

func (f *fakeRemote) RemoveLine(ctx context.Context, lineID uint) (*cart.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i, l := range f.lines {
		if l.ID == lineID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return f.snapshot(), nil
		}
	}
	return nil, &remote.APIError{Status: http.StatusNotFound, Message: "cart line not found"}
}

// snapshot must be called with mu held
func (f *fakeRemote) snapshot() *cart.Snapshot {
	snap := cart.Empty()
	for _, l := range f.lines {
		p := f.products[l.ProductID]
		unit := pricing.Resolve(p.Quote, l.Pool()).Unit
		line := l
		line.ProductName = p.Name
		line.ProductUnit = p.Quote.UnitOfMeasure
		line.PricePerUnit = unit
		line.SubTotal = pricing.Subtotal(unit, l.Quantity)
		line.StockQuantity = p.Levels.StockQuantity
		line.NearExpiryQuantity = p.Levels.NearExpiryQuantity
		snap.Items = append(snap.Items, line)
		snap.TotalPrice += line.SubTotal
	}
	return snap
}
