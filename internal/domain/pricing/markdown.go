package pricing

import (
	"time"
)

type markdownTier struct {
	maxDays int
	percent int64
}

// Clearance tiers by whole days left until expiry; percent is what remains of the base price.
var clearanceTiers = []markdownTier{
	{maxDays: 0, percent: 25},
	{maxDays: 3, percent: 50},
	{maxDays: 7, percent: 80},
}

// DaysUntil counts calendar days from now to the expiry date; negative once expired.
func DaysUntil(expiry, now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := expiry.Date()
	exp := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24)
}

// ClearancePrice returns the expiry markdown for a base price. The second
// return is false when the product is outside every tier.
func ClearancePrice(base int64, expiry *time.Time, now time.Time) (int64, bool) {
	if expiry == nil {
		return base, false
	}
	days := DaysUntil(*expiry, now)
	for _, tier := range clearanceTiers {
		if days <= tier.maxDays {
			return base * tier.percent / 100, true
		}
	}
	return base, false
}

// ApplyDiscount applies a promotional discount. Percent values are whole
// percentages, fixed values are cents. The result never goes below zero.
func ApplyDiscount(base int64, kind DiscountType, value int64) int64 {
	switch kind {
	case DiscountPercent:
		return PercentOff(base, value)
	case DiscountFixed:
		if value >= base {
			return 0
		}
		return base - value
	default:
		return base
	}
}
