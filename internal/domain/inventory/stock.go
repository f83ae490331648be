// internal/domain/inventory/stock.go
package inventory

import (
	"errors"
	"fmt"
)

// Pool identifies which of a product's two disjoint stock pools a quantity draws from
type Pool string

const (
	// PoolReduced is the soon-to-expire clearance stock
	PoolReduced Pool = "reduced"
	// PoolFresh is the normal stock, sold at base price
	PoolFresh Pool = "fresh"
)

var (
	ErrNegativeStock      = errors.New("stock quantities cannot be negative")
	ErrNearExpiryOverflow = errors.New("near-expiry quantity exceeds stock quantity")
	ErrUnknownPool        = errors.New("unknown stock pool")
)

// PoolFromFreshMode maps the wire-level freshMode flag to a pool
func PoolFromFreshMode(freshMode bool) Pool {
	if freshMode {
		return PoolFresh
	}
	return PoolReduced
}

// FreshMode reports the wire-level flag for the pool
func (p Pool) FreshMode() bool {
	return p == PoolFresh
}

// Other returns the opposite pool
func (p Pool) Other() Pool {
	if p == PoolFresh {
		return PoolReduced
	}
	return PoolFresh
}

// Valid reports whether p is one of the two known pools
func (p Pool) Valid() bool {
	return p == PoolReduced || p == PoolFresh
}

// ParsePool parses "reduced" or "fresh"
func ParsePool(s string) (Pool, error) {
	p := Pool(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPool, s)
	}
	return p, nil
}

// Levels is a product's stock split into its two pools. The fresh pool size is
// always derived from the total and never stored.
type Levels struct {
	StockQuantity      int `json:"stockQuantity"`
	NearExpiryQuantity int `json:"nearExpiryQuantity"`
}

// Validate checks nearExpiryQuantity <= stockQuantity and non-negative counts
func (l Levels) Validate() error {
	if l.StockQuantity < 0 || l.NearExpiryQuantity < 0 {
		return ErrNegativeStock
	}
	if l.NearExpiryQuantity > l.StockQuantity {
		return fmt.Errorf("%w: %d > %d", ErrNearExpiryOverflow, l.NearExpiryQuantity, l.StockQuantity)
	}
	return nil
}

// FreshStock is stockQuantity - nearExpiryQuantity, clamped at zero
func (l Levels) FreshStock() int {
	return clamp(l.StockQuantity - l.NearExpiryQuantity)
}

// HasReducedPool is false when there is no clearance lot; only the fresh pool is selectable then.
func (l Levels) HasReducedPool() bool {
	return l.NearExpiryQuantity > 0
}

// Capacity is the full size of a pool before any reservation
func (l Levels) Capacity(p Pool) int {
	if p == PoolFresh {
		return l.FreshStock()
	}
	return clamp(l.NearExpiryQuantity)
}

// SelectablePools lists the pools a shopper may pick, reduced first
func (l Levels) SelectablePools() []Pool {
	if !l.HasReducedPool() {
		return []Pool{PoolFresh}
	}
	return []Pool{PoolReduced, PoolFresh}
}

// Reserved is what a cart already holds of one product, per pool
type Reserved struct {
	Reduced int
	Fresh   int
}

// In returns the reservation for a pool
func (r Reserved) In(p Pool) int {
	if p == PoolFresh {
		return r.Fresh
	}
	return r.Reduced
}

// Add returns r with qty more reserved in pool p
func (r Reserved) Add(p Pool, qty int) Reserved {
	if p == PoolFresh {
		r.Fresh += qty
	} else {
		r.Reduced += qty
	}
	return r
}

// Total is the sum over both pools
func (r Reserved) Total() int {
	return r.Reduced + r.Fresh
}

// RemainingReduced is max(0, nearExpiryQuantity - reducedQtyInCart)
func RemainingReduced(l Levels, r Reserved) int {
	return clamp(l.NearExpiryQuantity - r.Reduced)
}

// RemainingFresh is max(0, (stockQuantity - nearExpiryQuantity) - freshQtyInCart)
func RemainingFresh(l Levels, r Reserved) int {
	return clamp(l.FreshStock() - r.Fresh)
}

// Remaining dispatches to the pool's remaining calculation
func Remaining(l Levels, r Reserved, p Pool) int {
	if p == PoolFresh {
		return RemainingFresh(l, r)
	}
	return RemainingReduced(l, r)
}

// Availability is a point-in-time view of both pools for one product. It is
// meant to be recomputed on every render and never cached across mutations.
type Availability struct {
	Reduced        int  `json:"remainingReduced"`
	Fresh          int  `json:"remainingFresh"`
	HasReducedPool bool `json:"hasReducedPool"`
}

// Check computes the availability of both pools given a cart reservation
func Check(l Levels, r Reserved) Availability {
	return Availability{
		Reduced:        RemainingReduced(l, r),
		Fresh:          RemainingFresh(l, r),
		HasReducedPool: l.HasReducedPool(),
	}
}

// In returns the remaining quantity for a pool
func (a Availability) In(p Pool) int {
	if p == PoolFresh {
		return a.Fresh
	}
	return a.Reduced
}

// OutOfStock reports whether the pool has nothing left to add
func (a Availability) OutOfStock(p Pool) bool {
	return a.In(p) == 0
}

// Total is what is left across both pools
func (a Availability) Total() int {
	return a.Reduced + a.Fresh
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
