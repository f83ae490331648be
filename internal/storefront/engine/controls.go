package engine

import (
	"context"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
)

// PoolControl is the state of one pool's add affordance
type PoolControl struct {
	Pool      inventory.Pool
	Remaining int
	State     LineState
	// CanIncrement is false at the pool's cap and while a change is in flight
	CanIncrement bool
	Price        pricing.LinePrice
}

// Controls are the cart affordances for one product. They are computed from
// the current snapshot on every call and should not be kept across changes.
type Controls struct {
	ProductID uint
	// ShowPoolTabs is false when the product has no clearance lot
	ShowPoolTabs bool
	Pools        []PoolControl
	OutOfStock   bool
	Busy         bool
}

// Pool returns the control for a pool
func (c Controls) Pool(p inventory.Pool) (PoolControl, bool) {
	for _, pc := range c.Pools {
		if pc.Pool == p {
			return pc, true
		}
	}
	return PoolControl{}, false
}

// Controls computes the add affordances for a product
func (e *Engine) Controls(p Product) Controls {
	e.mu.Lock()
	snap := e.view()
	busy := e.inflight
	lv := levels(p, snap)
	avail := availability(p, snap)
	c := Controls{
		ProductID:    p.ID,
		ShowPoolTabs: avail.HasReducedPool,
		OutOfStock:   avail.Total() == 0,
		Busy:         busy,
	}
	for _, pool := range lv.SelectablePools() {
		state := Absent
		if _, ok := snap.Find(p.ID, pool); ok {
			state = Present
		}
		c.Pools = append(c.Pools, PoolControl{
			Pool:         pool,
			Remaining:    avail.In(pool),
			State:        state,
			CanIncrement: !busy && avail.In(pool) > 0,
			Price:        pricing.Resolve(p.Quote, pool),
		})
	}
	e.mu.Unlock()
	return c
}

// Stepper is the quantity selector of a product page. Its cap follows the
// selected pool: in reduced mode it spans both pools so that a request past
// the clearance lot turns into a Conflict; in fresh mode it is the fresh pool.
type Stepper struct {
	engine  *Engine
	product Product
	pool    inventory.Pool
	qty     int
}

// NewStepper opens a stepper at quantity 1. Products without a clearance lot
// start in fresh mode.
func (e *Engine) NewStepper(p Product) *Stepper {
	pool := inventory.PoolReduced
	if !e.Availability(p).HasReducedPool {
		pool = inventory.PoolFresh
	}
	return &Stepper{engine: e, product: p, pool: pool, qty: 1}
}

// Pool returns the selected pool
func (s *Stepper) Pool() inventory.Pool { return s.pool }

// Quantity returns the selected quantity
func (s *Stepper) Quantity() int { return s.qty }

// Max is the largest quantity the stepper allows right now
func (s *Stepper) Max() int {
	avail := s.engine.Availability(s.product)
	if s.pool == inventory.PoolFresh {
		return avail.Fresh
	}
	return avail.Total()
}

// SetPool switches pools and resets the quantity to 1. The reduced pool can
// only be selected when the product has a clearance lot.
func (s *Stepper) SetPool(pool inventory.Pool) error {
	if !pool.Valid() {
		return inventory.ErrUnknownPool
	}
	if pool == inventory.PoolReduced && !s.engine.Availability(s.product).HasReducedPool {
		return inventory.ErrUnknownPool
	}
	s.pool = pool
	s.qty = 1
	return nil
}

// Inc raises the quantity by one unless it is at the cap
func (s *Stepper) Inc() bool {
	if s.qty >= s.Max() {
		return false
	}
	s.qty++
	return true
}

// Dec lowers the quantity by one down to 1
func (s *Stepper) Dec() bool {
	if s.qty <= 1 {
		return false
	}
	s.qty--
	return true
}

// Set clamps n into [1, Max]
func (s *Stepper) Set(n int) {
	s.qty = max(1, min(n, s.Max()))
}

// CanAdd reports whether the add button is enabled
func (s *Stepper) CanAdd() bool {
	m := s.Max()
	return m > 0 && s.qty <= m && !s.engine.Busy()
}

// Price is the resolved unit price of the selected pool
func (s *Stepper) Price() pricing.LinePrice {
	return pricing.Resolve(s.product.Quote, s.pool)
}

// Submit requests the selected quantity. The stepper goes back to 1 once
// the request is committed; a returned Conflict leaves it untouched.
func (s *Stepper) Submit(ctx context.Context) (*Conflict, error) {
	conflict, err := s.engine.Request(ctx, s.product, s.pool, s.qty)
	if err != nil || conflict != nil {
		return conflict, err
	}
	s.qty = 1
	return nil, nil
}
