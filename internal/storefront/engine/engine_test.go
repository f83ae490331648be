package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/storefront/remote"
	"github.com/your-org/grocery-storefront/internal/testutil"
)

func clearanceProduct(id uint, stock, nearExpiry int) Product {
	return Product{
		ID:     id,
		Name:   "Milk",
		Levels: inventory.Levels{StockQuantity: stock, NearExpiryQuantity: nearExpiry},
		Quote: pricing.Quote{
			BasePrice:         1000,
			CurrentPrice:      700,
			HasActiveDiscount: true,
			DiscountType:      pricing.DiscountClearance,
			UnitOfMeasure:     "buc",
		},
	}
}

func newEngine(t *testing.T, products ...Product) (*Engine, *fakeRemote) {
	t.Helper()
	fake := newFakeRemote(products...)
	e := New(fake, testutil.NewLogger())
	require.NoError(t, e.Refresh(context.Background()))
	return e, fake
}

func quantities(s *cart.Snapshot) map[inventory.Pool]int {
	out := map[inventory.Pool]int{}
	for _, l := range s.Items {
		out[l.Pool()] += l.Quantity
	}
	return out
}

func TestRemainingPlusReservedIsPoolSize(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, _ := newEngine(t, p)
	ctx := context.Background()

	steps := []struct {
		pool inventory.Pool
		qty  int
	}{
		{inventory.PoolReduced, 1},
		{inventory.PoolFresh, 2},
		{inventory.PoolReduced, 3},
		{inventory.PoolFresh, 4},
	}
	for _, step := range steps {
		conflict, err := e.Request(ctx, p, step.pool, step.qty)
		require.NoError(t, err)
		require.Nil(t, conflict)

		avail := e.Availability(p)
		reserved := e.Snapshot().Reserved(p.ID)
		assert.Equal(t, p.Levels.NearExpiryQuantity, avail.Reduced+reserved.Reduced)
		assert.Equal(t, p.Levels.StockQuantity-p.Levels.NearExpiryQuantity, avail.Fresh+reserved.Fresh)
	}
}

func TestFetchCartIsIdempotent(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, fake := newEngine(t, p)
	ctx := context.Background()
	_, err := e.Request(ctx, p, inventory.PoolReduced, 2)
	require.NoError(t, err)

	first, err := fake.FetchCart(ctx)
	require.NoError(t, err)
	second, err := fake.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, e.Refresh(ctx))
	before := e.Snapshot()
	require.NoError(t, e.Refresh(ctx))
	assert.Equal(t, before, e.Snapshot())
}

func TestRequestWithinReducedPool(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, _ := newEngine(t, p)

	conflict, err := e.Request(context.Background(), p, inventory.PoolReduced, 4)
	require.NoError(t, err)
	assert.Nil(t, conflict)

	snap := e.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Items[0].Quantity)
	assert.False(t, snap.Items[0].FreshMode)
	assert.Equal(t, Present, e.State(p.ID, inventory.PoolReduced))
	assert.Equal(t, Absent, e.State(p.ID, inventory.PoolFresh))
}

func TestCrossBoundaryAdd(t *testing.T) {
	p := clearanceProduct(1, 10, 4)

	t.Run("mixed", func(t *testing.T) {
		e, _ := newEngine(t, p)
		ctx := context.Background()

		conflict, err := e.Request(ctx, p, inventory.PoolReduced, 5)
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, 4, conflict.Reduced)
		assert.Equal(t, 1, conflict.Shortfall)
		assert.Empty(t, e.Snapshot().Items, "nothing is committed before the shopper chooses")

		assert.Equal(t, int64(4*700+1000), conflict.MixedTotal())
		assert.Equal(t, int64(4*700), conflict.ReducedOnlyTotal())

		require.NoError(t, e.Resolve(ctx, conflict, Mixed))
		snap := e.Snapshot()
		require.Len(t, snap.Items, 2)
		assert.Equal(t, map[inventory.Pool]int{inventory.PoolReduced: 4, inventory.PoolFresh: 1}, quantities(snap))
	})

	t.Run("reduced only", func(t *testing.T) {
		e, _ := newEngine(t, p)
		ctx := context.Background()

		conflict, err := e.Request(ctx, p, inventory.PoolReduced, 5)
		require.NoError(t, err)
		require.NotNil(t, conflict)

		require.NoError(t, e.Resolve(ctx, conflict, ReducedOnly))
		snap := e.Snapshot()
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 4, snap.Items[0].Quantity)
		assert.False(t, snap.Items[0].FreshMode)
	})

	t.Run("stale conflict", func(t *testing.T) {
		e, fake := newEngine(t, p)
		ctx := context.Background()

		conflict, err := e.Request(ctx, p, inventory.PoolReduced, 5)
		require.NoError(t, err)
		require.NotNil(t, conflict)

		// the cart moved on before the shopper answered
		_, err = e.Request(ctx, p, inventory.PoolReduced, 1)
		require.NoError(t, err)
		calls := fake.callCount()

		assert.ErrorIs(t, e.Resolve(ctx, conflict, Mixed), ErrStaleConflict)
		assert.Equal(t, calls, fake.callCount())
	})

	t.Run("beyond both pools", func(t *testing.T) {
		e, fake := newEngine(t, p)
		calls := fake.callCount()

		_, err := e.Request(context.Background(), p, inventory.PoolReduced, 11)
		assert.ErrorIs(t, err, ErrExceedsStock)
		assert.Equal(t, calls, fake.callCount())
	})
}

func TestPricingPerPool(t *testing.T) {
	p := clearanceProduct(1, 10, 3)
	e, _ := newEngine(t, p)
	ctx := context.Background()

	_, err := e.Request(ctx, p, inventory.PoolReduced, 2)
	require.NoError(t, err)
	_, err = e.Request(ctx, p, inventory.PoolFresh, 2)
	require.NoError(t, err)

	snap := e.Snapshot()
	reduced, ok := snap.Find(p.ID, inventory.PoolReduced)
	require.True(t, ok)
	fresh, ok := snap.Find(p.ID, inventory.PoolFresh)
	require.True(t, ok)

	assert.Equal(t, int64(1400), reduced.SubTotal)
	assert.Equal(t, int64(2000), fresh.SubTotal)
	assert.Equal(t, int64(3400), e.Total())
}

func TestOutOfStock(t *testing.T) {
	p := clearanceProduct(1, 0, 0)
	e, fake := newEngine(t, p)
	calls := fake.callCount()

	avail := e.Availability(p)
	assert.Equal(t, 0, avail.Reduced)
	assert.Equal(t, 0, avail.Fresh)

	c := e.Controls(p)
	assert.True(t, c.OutOfStock)
	assert.False(t, c.ShowPoolTabs)
	for _, pc := range c.Pools {
		assert.False(t, pc.CanIncrement, "pool %s", pc.Pool)
	}

	for _, pool := range []inventory.Pool{inventory.PoolReduced, inventory.PoolFresh} {
		changed, err := e.Increment(context.Background(), p, pool)
		require.NoError(t, err)
		assert.False(t, changed)
	}
	assert.False(t, e.NewStepper(p).CanAdd())
	assert.Equal(t, calls, fake.callCount(), "no request may be made")
}

func TestReducedPoolExhaustion(t *testing.T) {
	p := clearanceProduct(1, 10, 2)
	e, fake := newEngine(t, p)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		changed, err := e.Increment(ctx, p, inventory.PoolReduced)
		require.NoError(t, err)
		require.True(t, changed)
	}

	assert.Equal(t, 0, e.Availability(p).Reduced)
	c := e.Controls(p)
	reduced, ok := c.Pool(inventory.PoolReduced)
	require.True(t, ok)
	assert.False(t, reduced.CanIncrement)
	assert.Equal(t, Present, reduced.State)
	fresh, ok := c.Pool(inventory.PoolFresh)
	require.True(t, ok)
	assert.True(t, fresh.CanIncrement)
	assert.Equal(t, 8, fresh.Remaining)

	calls := fake.callCount()
	changed, err := e.Increment(ctx, p, inventory.PoolReduced)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, calls, fake.callCount())
}

func TestFailedAddLeavesSnapshotUnchanged(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, fake := newEngine(t, p)
	ctx := context.Background()
	_, err := e.Request(ctx, p, inventory.PoolFresh, 1)
	require.NoError(t, err)

	before := e.Snapshot()
	fake.failAdd = errNetwork

	_, err = e.Increment(ctx, p, inventory.PoolReduced)
	require.ErrorIs(t, err, errNetwork)
	assert.Equal(t, before, e.Snapshot())
	assert.False(t, e.Busy())
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(err))
}

func TestFailedAddKeepsLastSnapshotWhenReloadFails(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, fake := newEngine(t, p)
	ctx := context.Background()
	_, err := e.Request(ctx, p, inventory.PoolFresh, 1)
	require.NoError(t, err)

	before := e.Snapshot()
	fake.failAdd = errNetwork
	fake.failFetch = errNetwork

	_, err = e.Increment(ctx, p, inventory.PoolFresh)
	require.Error(t, err)
	assert.Equal(t, before, e.Snapshot())
}

func TestServerStockConflictReloadsCart(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, fake := newEngine(t, p)
	ctx := context.Background()
	_, err := e.Request(ctx, p, inventory.PoolReduced, 2)
	require.NoError(t, err)

	// another session bought the rest of the clearance lot
	fake.setLevels(p.ID, inventory.Levels{StockQuantity: 8, NearExpiryQuantity: 2})

	_, err = e.Increment(ctx, p, inventory.PoolReduced)
	require.Error(t, err)
	assert.True(t, remote.IsStockConflict(err))
	assert.Contains(t, UserMessage(err), "no longer available")

	// the reloaded snapshot carries the new levels, so the pool now reads as exhausted
	line, ok := e.Snapshot().Find(p.ID, inventory.PoolReduced)
	require.True(t, ok)
	assert.Equal(t, 2, line.NearExpiryQuantity)
	assert.Equal(t, 0, e.Availability(p).Reduced)
}

func TestInFlightGuard(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, fake := newEngine(t, p)
	ctx := context.Background()
	fake.block()

	done := make(chan error, 1)
	go func() {
		_, err := e.Increment(ctx, p, inventory.PoolFresh)
		done <- err
	}()
	<-fake.started

	assert.True(t, e.Busy())
	// the tentative change is visible while the call is in flight
	tentative := e.Snapshot()
	require.Len(t, tentative.Items, 1)
	assert.Equal(t, 1, tentative.Items[0].Quantity)
	assert.Empty(t, e.Confirmed().Items)

	c := e.Controls(p)
	assert.True(t, c.Busy)
	fresh, _ := c.Pool(inventory.PoolFresh)
	assert.False(t, fresh.CanIncrement)

	_, err := e.Increment(ctx, p, inventory.PoolFresh)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, UserMessage(err))
	assert.ErrorIs(t, e.Remove(ctx, 1), ErrBusy)

	close(fake.release)
	require.NoError(t, <-done)

	snap := e.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity, "the second click was ignored, not queued")
	assert.False(t, e.Busy())
}

func TestCancelledCallIsAbandoned(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, fake := newEngine(t, p)
	fake.block()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := e.Increment(ctx, p, inventory.PoolFresh)
		done <- err
	}()
	<-fake.started
	fetches := fake.fetches
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, fetches, fake.fetches, "an abandoned call does not reload")
	assert.False(t, e.Busy())
	assert.Empty(t, e.Snapshot().Items)
}

func TestDecrement(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, _ := newEngine(t, p)
	ctx := context.Background()

	_, err := e.Request(ctx, p, inventory.PoolReduced, 2)
	require.NoError(t, err)
	_, err = e.Request(ctx, p, inventory.PoolFresh, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Decrement(ctx, p.ID, inventory.PoolReduced), ErrDecrementDisabled)
	assert.Equal(t, Present, e.State(p.ID, inventory.PoolReduced))

	require.NoError(t, e.Decrement(ctx, p.ID, inventory.PoolFresh))
	assert.Equal(t, Absent, e.State(p.ID, inventory.PoolFresh))

	// nothing to decrement
	require.NoError(t, e.Decrement(ctx, p.ID, inventory.PoolFresh))
}

func TestRemove(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, _ := newEngine(t, p)
	ctx := context.Background()

	_, err := e.Request(ctx, p, inventory.PoolReduced, 3)
	require.NoError(t, err)
	line, ok := e.Snapshot().Find(p.ID, inventory.PoolReduced)
	require.True(t, ok)

	require.NoError(t, e.Remove(ctx, line.ID))
	assert.Empty(t, e.Snapshot().Items)
	assert.Equal(t, 4, e.Availability(p).Reduced)

	err = e.Remove(ctx, line.ID)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestSession(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	ctx := context.Background()
	fake := newFakeRemote(p)
	_, err := fake.AddLine(ctx, p.ID, 2, inventory.PoolReduced)
	require.NoError(t, err)
	fake.calls = 0

	s := NewSession(testutil.NewLogger())
	require.NoError(t, s.Cart().Refresh(ctx))
	assert.Empty(t, s.Cart().Snapshot().Items)
	_, err = s.Cart().Increment(ctx, p, inventory.PoolFresh)
	assert.ErrorIs(t, err, ErrSignedOut)
	assert.Zero(t, fake.callCount())

	require.NoError(t, s.Login(ctx, fake))
	assert.True(t, s.Cart().SignedIn())
	assert.Equal(t, 2, s.Cart().Snapshot().Count())

	s.Logout()
	assert.False(t, s.Cart().SignedIn())
	assert.Empty(t, s.Cart().Snapshot().Items)
}

func TestLogoutDiscardsInFlightResponse(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	fake := newFakeRemote(p)
	s := NewSession(testutil.NewLogger())
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, fake))
	fake.block()

	done := make(chan error, 1)
	go func() {
		_, err := s.Cart().Increment(ctx, p, inventory.PoolFresh)
		done <- err
	}()
	<-fake.started
	s.Logout()
	close(fake.release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDiscarded)
	case <-time.After(time.Second):
		t.Fatal("increment did not return")
	}
	assert.Empty(t, s.Cart().Snapshot().Items)
	assert.False(t, s.Cart().Busy())
}

func TestFromLine(t *testing.T) {
	l := cart.Line{ProductID: 3, ProductName: "Eggs", ProductUnit: "buc", PricePerUnit: 250, StockQuantity: 6, NearExpiryQuantity: 2}
	p := FromLine(l)
	assert.Equal(t, uint(3), p.ID)
	assert.Equal(t, 4, p.Levels.FreshStock())
	assert.Equal(t, int64(250), pricing.Resolve(p.Quote, inventory.PoolFresh).Unit)
}

func TestParseResolution(t *testing.T) {
	r, err := ParseResolution("mixed")
	require.NoError(t, err)
	assert.Equal(t, Mixed, r)
	r, err = ParseResolution("reduced")
	require.NoError(t, err)
	assert.Equal(t, ReducedOnly, r)
	_, err = ParseResolution("fresh")
	assert.Error(t, err)
}

func TestCapacityIsRecheckedWhenTheGuardIsTaken(t *testing.T) {
	p := clearanceProduct(1, 10, 2)
	e, fake := newEngine(t, p)
	ctx := context.Background()

	_, err := e.Request(ctx, p, inventory.PoolReduced, 1)
	require.NoError(t, err)
	require.Equal(t, 1, e.Availability(p).Reduced)

	// a click decided against one remaining unit, then an earlier mutation
	// landed and took it
	stale := fits(p, inventory.PoolReduced, 1)
	_, err = e.Request(ctx, p, inventory.PoolReduced, 1)
	require.NoError(t, err)

	calls := fake.callCount()
	err = e.mutate(ctx, stale, addTentative(p, inventory.PoolReduced, 1), addCall(p.ID, 1, inventory.PoolReduced))
	assert.ErrorIs(t, err, errAtCap)
	assert.Equal(t, calls, fake.callCount(), "no request may be made")
	assert.False(t, e.Busy())
	assert.Equal(t, 2, quantities(e.Snapshot())[inventory.PoolReduced])

	changed, err := e.Increment(ctx, p, inventory.PoolReduced)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, calls, fake.callCount())
}
