// internal/domain/pricing/resolver.go
package pricing

import (
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
)

// DiscountType mirrors the discountType field of a product response
type DiscountType string

const (
	DiscountNone    DiscountType = ""
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
	// DiscountClearance is the automatic markdown for units close to expiry
	DiscountClearance DiscountType = "DYNAMIC_AUTO"
)

// Promotional reports whether the discount is a regular promotion rather than
// an expiry markdown. Promotions apply to every unit of the product.
func (d DiscountType) Promotional() bool {
	return d == DiscountPercent || d == DiscountFixed
}

// Quote carries the price fields of a product that pricing depends on. All
// amounts are in cents.
type Quote struct {
	BasePrice         int64        `json:"price"`
	CurrentPrice      int64        `json:"currentPrice"`
	HasActiveDiscount bool         `json:"hasActiveDiscount"`
	DiscountType      DiscountType `json:"discountType,omitempty"`
	UnitOfMeasure     string       `json:"unitOfMeasure"`
}

// LinePrice is the resolved price for one cart line
type LinePrice struct {
	Pool inventory.Pool `json:"pool"`
	// Unit is what one unit is charged at
	Unit int64 `json:"unit"`
	// Was is the crossed-out base price, zero when the line is not discounted
	Was        int64 `json:"was,omitempty"`
	Discounted bool  `json:"discounted"`
}

// Resolve picks the unit price for a pool.
//
// The reduced pool is charged the product's current price whenever a discount
// is active. The fresh pool is charged the base price unless the active
// discount is a promotion, in which case both pools coincide.
func Resolve(q Quote, pool inventory.Pool) LinePrice {
	lp := LinePrice{Pool: pool, Unit: q.BasePrice}

	discounted := q.HasActiveDiscount && q.CurrentPrice >= 0 && q.CurrentPrice < q.BasePrice
	if !discounted {
		return lp
	}
	if pool == inventory.PoolFresh && !q.DiscountType.Promotional() {
		return lp
	}

	lp.Unit = q.CurrentPrice
	lp.Was = q.BasePrice
	lp.Discounted = true
	return lp
}

// Subtotal is quantity x unit price
func Subtotal(unit int64, quantity int) int64 {
	return unit * int64(quantity)
}

// LineSubtotal resolves the unit price for pool and multiplies it out
func LineSubtotal(q Quote, pool inventory.Pool, quantity int) int64 {
	return Subtotal(Resolve(q, pool).Unit, quantity)
}
