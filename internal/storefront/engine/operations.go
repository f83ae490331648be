package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
)

// errAtCap is returned by a capacity check that no longer holds once the
// in-flight guard is taken
var errAtCap = errors.New("pool is at its cap")

// Resolution is the shopper's answer to a boundary conflict
type Resolution int

const (
	// Mixed takes what is left of the reduced pool and the rest from the fresh pool
	Mixed Resolution = iota + 1
	// ReducedOnly takes what is left of the reduced pool and drops the rest
	ReducedOnly
)

func (r Resolution) String() string {
	switch r {
	case Mixed:
		return "mixed"
	case ReducedOnly:
		return "reduced-only"
	default:
		return "unknown"
	}
}

// ParseResolution accepts "mixed" or "reduced"
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "mixed":
		return Mixed, nil
	case "reduced", "reduced-only":
		return ReducedOnly, nil
	default:
		return 0, fmt.Errorf("unknown resolution %q", s)
	}
}

// Conflict describes a reduced-pool request that runs past the clearance lot.
// Nothing is committed until it is resolved.
type Conflict struct {
	Product   Product
	Requested int
	// Reduced is what the reduced pool can still give
	Reduced int
	// Shortfall is the part the fresh pool would have to cover
	Shortfall int
}

// MixedTotal is the price of taking the whole request across both pools
func (c *Conflict) MixedTotal() int64 {
	return pricing.LineSubtotal(c.Product.Quote, inventory.PoolReduced, c.Reduced) +
		pricing.LineSubtotal(c.Product.Quote, inventory.PoolFresh, c.Shortfall)
}

// ReducedOnlyTotal is the price of taking only the reduced units
func (c *Conflict) ReducedOnlyTotal() int64 {
	return pricing.LineSubtotal(c.Product.Quote, inventory.PoolReduced, c.Reduced)
}

// Availability recomputes what is left of both pools for a product against
// the current snapshot.
func (e *Engine) Availability(p Product) inventory.Availability {
	e.mu.Lock()
	defer e.mu.Unlock()
	return availability(p, e.view())
}

// Increment adds one unit from pool. At the pool's cap it does nothing and
// makes no request; the returned bool reports whether a change was committed.
func (e *Engine) Increment(ctx context.Context, p Product, pool inventory.Pool) (bool, error) {
	avail := e.Availability(p)
	if pool == inventory.PoolReduced && !avail.HasReducedPool {
		return false, nil
	}
	if avail.In(pool) < 1 {
		return false, nil
	}

	err := e.mutate(ctx, fits(p, pool, 1), addTentative(p, pool, 1), addCall(p.ID, 1, pool))
	if errors.Is(err, errAtCap) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	e.logChange(p.ID, pool, 1).Debug("cart line incremented")
	return true, nil
}

// Decrement takes one unit off the product's line in pool. The cart only
// supports dropping a line that holds a single unit; anything else has to be
// removed outright.
func (e *Engine) Decrement(ctx context.Context, productID uint, pool inventory.Pool) error {
	line, ok := e.Snapshot().Find(productID, pool)
	if !ok {
		return nil
	}
	if line.Quantity > 1 {
		return ErrDecrementDisabled
	}
	return e.Remove(ctx, line.ID)
}

// Remove deletes a line whatever its quantity
func (e *Engine) Remove(ctx context.Context, lineID uint) error {
	if err := e.mutate(ctx, nil, removeTentative(lineID), removeCall(lineID)); err != nil {
		return err
	}
	e.log.WithField("line_id", lineID).Debug("cart line removed")
	return nil
}

// Request adds qty units from pool. A reduced-pool request that the clearance
// lot cannot cover but the fresh pool can top up is not committed; it comes
// back as a Conflict for the shopper to resolve.
func (e *Engine) Request(ctx context.Context, p Product, pool inventory.Pool, qty int) (*Conflict, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	if !pool.Valid() {
		return nil, inventory.ErrUnknownPool
	}

	avail := e.Availability(p)
	remaining := avail.In(pool)
	if pool == inventory.PoolReduced && !avail.HasReducedPool {
		remaining = 0
	}

	if qty <= remaining {
		err := e.mutate(ctx, fits(p, pool, qty), addTentative(p, pool, qty), addCall(p.ID, qty, pool))
		if errors.Is(err, errAtCap) {
			return nil, fmt.Errorf("%w: stock changed while the request was checked", ErrExceedsStock)
		}
		if err != nil {
			return nil, err
		}
		e.logChange(p.ID, pool, qty).Debug("cart line added")
		return nil, nil
	}

	shortfall := qty - remaining
	if pool == inventory.PoolReduced && avail.HasReducedPool && shortfall <= avail.Fresh {
		e.logChange(p.ID, pool, qty).WithField("shortfall", shortfall).Debug("request crosses pool boundary")
		return &Conflict{Product: p, Requested: qty, Reduced: remaining, Shortfall: shortfall}, nil
	}

	return nil, fmt.Errorf("%w: %d requested, %d left", ErrExceedsStock, qty, remaining)
}

// Resolve commits the shopper's choice for a conflict. The conflict is
// checked again against the current cart first.
func (e *Engine) Resolve(ctx context.Context, c *Conflict, choice Resolution) error {
	p := c.Product
	current := func(s *cart.Snapshot) error {
		avail := availability(p, s)
		if avail.Reduced != c.Reduced || avail.Fresh < c.Shortfall {
			return ErrStaleConflict
		}
		return nil
	}
	if err := current(e.Snapshot()); err != nil {
		return err
	}

	switch choice {
	case Mixed:
		var calls []remoteCall
		if c.Reduced > 0 {
			calls = append(calls, addCall(p.ID, c.Reduced, inventory.PoolReduced))
		}
		calls = append(calls, addCall(p.ID, c.Shortfall, inventory.PoolFresh))

		apply := func(s *cart.Snapshot) {
			if c.Reduced > 0 {
				addTentative(p, inventory.PoolReduced, c.Reduced)(s)
			}
			addTentative(p, inventory.PoolFresh, c.Shortfall)(s)
		}
		if err := e.mutate(ctx, current, apply, calls...); err != nil {
			return err
		}
	case ReducedOnly:
		if c.Reduced == 0 {
			return nil
		}
		if err := e.mutate(ctx, current, addTentative(p, inventory.PoolReduced, c.Reduced), addCall(p.ID, c.Reduced, inventory.PoolReduced)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown resolution %d", choice)
	}

	e.log.WithFields(logrus.Fields{
		"product_id": p.ID,
		"resolution": choice.String(),
		"reduced":    c.Reduced,
		"shortfall":  c.Shortfall,
	}).Info("pool boundary conflict resolved")
	return nil
}

func (e *Engine) logChange(productID uint, pool inventory.Pool, qty int) *logrus.Entry {
	return e.log.WithFields(logrus.Fields{
		"product_id": productID,
		"pool":       pool,
		"quantity":   qty,
	})
}
