package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
)

func TestResolveClearance(t *testing.T) {
	q := Quote{BasePrice: 1000, CurrentPrice: 700, HasActiveDiscount: true, DiscountType: DiscountClearance}

	reduced := Resolve(q, inventory.PoolReduced)
	assert.Equal(t, int64(700), reduced.Unit)
	assert.Equal(t, int64(1000), reduced.Was)
	assert.True(t, reduced.Discounted)

	fresh := Resolve(q, inventory.PoolFresh)
	assert.Equal(t, int64(1000), fresh.Unit)
	assert.False(t, fresh.Discounted)

	assert.Equal(t, int64(1400), LineSubtotal(q, inventory.PoolReduced, 2))
	assert.Equal(t, int64(2000), LineSubtotal(q, inventory.PoolFresh, 2))
}

func TestResolvePromotionAppliesToBothPools(t *testing.T) {
	q := Quote{BasePrice: 500, CurrentPrice: 450, HasActiveDiscount: true, DiscountType: DiscountPercent}

	assert.Equal(t, int64(450), Resolve(q, inventory.PoolReduced).Unit)
	assert.Equal(t, int64(450), Resolve(q, inventory.PoolFresh).Unit)
}

func TestResolveWithoutDiscount(t *testing.T) {
	q := Quote{BasePrice: 300, CurrentPrice: 300}

	assert.Equal(t, int64(300), Resolve(q, inventory.PoolReduced).Unit)
	assert.Equal(t, int64(300), Resolve(q, inventory.PoolFresh).Unit)

	// an active flag with a non-lower current price is not a markdown
	q.HasActiveDiscount = true
	q.CurrentPrice = 350
	assert.False(t, Resolve(q, inventory.PoolReduced).Discounted)
}

func TestClearancePrice(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := now.AddDate(0, 0, offset)
		return &d
	}

	tests := []struct {
		name   string
		expiry *time.Time
		want   int64
		marked bool
	}{
		{name: "no expiry", expiry: nil, want: 1000},
		{name: "expired", expiry: day(-2), want: 250, marked: true},
		{name: "today", expiry: day(0), want: 250, marked: true},
		{name: "three days", expiry: day(3), want: 500, marked: true},
		{name: "one week", expiry: day(7), want: 800, marked: true},
		{name: "far away", expiry: day(8), want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, marked := ClearancePrice(1000, tt.expiry, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.marked, marked)
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	assert.Equal(t, int64(900), ApplyDiscount(1000, DiscountPercent, 10))
	assert.Equal(t, int64(750), ApplyDiscount(1000, DiscountFixed, 250))
	assert.Equal(t, int64(0), ApplyDiscount(1000, DiscountFixed, 2500))
	assert.Equal(t, int64(1000), ApplyDiscount(1000, DiscountNone, 50))
}

func TestMoneyHelpers(t *testing.T) {
	assert.Equal(t, "14.00", Format(1400))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, int64(1350), PercentOff(1500, 10))
	assert.Equal(t, int64(300), PercentOff(333, 10))
	assert.Equal(t, "per 100g", UnitLabel("g"))
	assert.Equal(t, "per item", UnitLabel("buc"))
	assert.Equal(t, "7.00 per kg (was 10.00)", Display(LinePrice{Unit: 700, Was: 1000, Discounted: true}, "kg"))
}
