package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
)

func TestControlsWithoutReducedPool(t *testing.T) {
	p := clearanceProduct(1, 5, 0)
	e, _ := newEngine(t, p)

	c := e.Controls(p)
	assert.False(t, c.ShowPoolTabs)
	require.Len(t, c.Pools, 1)
	assert.Equal(t, inventory.PoolFresh, c.Pools[0].Pool)
	assert.Equal(t, 5, c.Pools[0].Remaining)
	assert.Equal(t, int64(1000), c.Pools[0].Price.Unit)

	_, ok := c.Pool(inventory.PoolReduced)
	assert.False(t, ok)
}

func TestControlsPriceEachPool(t *testing.T) {
	p := clearanceProduct(1, 10, 3)
	e, _ := newEngine(t, p)

	c := e.Controls(p)
	assert.True(t, c.ShowPoolTabs)
	reduced, _ := c.Pool(inventory.PoolReduced)
	fresh, _ := c.Pool(inventory.PoolFresh)
	assert.Equal(t, int64(700), reduced.Price.Unit)
	assert.Equal(t, int64(1000), reduced.Price.Was)
	assert.Equal(t, int64(1000), fresh.Price.Unit)
	assert.False(t, fresh.Price.Discounted)
}

func TestStepper(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, _ := newEngine(t, p)

	s := e.NewStepper(p)
	assert.Equal(t, inventory.PoolReduced, s.Pool())
	assert.Equal(t, 1, s.Quantity())
	assert.Equal(t, 10, s.Max(), "reduced mode spans both pools")

	assert.False(t, s.Dec(), "floor is 1")
	for s.Inc() {
	}
	assert.Equal(t, 10, s.Quantity())

	require.NoError(t, s.SetPool(inventory.PoolFresh))
	assert.Equal(t, 1, s.Quantity(), "switching pools resets the quantity")
	assert.Equal(t, 6, s.Max())

	s.Set(50)
	assert.Equal(t, 6, s.Quantity())
	s.Set(-3)
	assert.Equal(t, 1, s.Quantity())
	assert.Equal(t, int64(1000), s.Price().Unit)
}

func TestStepperSubmit(t *testing.T) {
	p := clearanceProduct(1, 10, 4)
	e, _ := newEngine(t, p)
	ctx := context.Background()

	s := e.NewStepper(p)
	s.Set(5)
	conflict, err := s.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, 1, conflict.Shortfall)
	assert.Equal(t, 5, s.Quantity(), "a conflict leaves the selection alone")

	require.NoError(t, e.Resolve(ctx, conflict, Mixed))

	s.Set(3)
	require.NoError(t, s.SetPool(inventory.PoolFresh))
	s.Set(3)
	conflict, err = s.Submit(ctx)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.Equal(t, 1, s.Quantity())
	assert.Equal(t, 4, e.Snapshot().Reserved(p.ID).Fresh)
}

func TestStepperStartsFreshWithoutReducedPool(t *testing.T) {
	p := clearanceProduct(1, 5, 0)
	e, _ := newEngine(t, p)

	s := e.NewStepper(p)
	assert.Equal(t, inventory.PoolFresh, s.Pool())
	assert.ErrorIs(t, s.SetPool(inventory.PoolReduced), inventory.ErrUnknownPool)
	assert.True(t, s.CanAdd())
}
