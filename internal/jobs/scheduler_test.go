package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/product"
	"github.com/your-org/grocery-storefront/internal/testutil"
)

type countingSweeper struct {
	runs atomic.Int32
}

func (c *countingSweeper) SweepClearanceLots(ctx context.Context) (*product.SweepResult, error) {
	c.runs.Add(1)
	return &product.SweepResult{Marked: 1}, nil
}

type failingCleaner struct {
	runs atomic.Int32
}

func (f *failingCleaner) ClearAbandoned(ctx context.Context) (int64, error) {
	f.runs.Add(1)
	return 0, errors.New("database is down")
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	sweeper := &countingSweeper{}
	cleaner := &failingCleaner{}
	log := testutil.NewLogger()

	s := NewScheduler(log,
		ClearanceSweep(sweeper, 10*time.Millisecond, log),
		AbandonedCarts(cleaner, 10*time.Millisecond, log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool {
		return sweeper.runs.Load() >= 3 && cleaner.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()

	after := sweeper.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, sweeper.runs.Load())
}

func TestDisabledJobsAreSkipped(t *testing.T) {
	sweeper := &countingSweeper{}
	cleaner := &failingCleaner{}
	log := testutil.NewLogger()

	cfg := &config.Config{Catalog: config.CatalogConfig{SweepInterval: 0}, Cart: config.CartConfig{CleanupInterval: time.Hour}}
	s := NewScheduler(log, Housekeeping(cfg, sweeper, cleaner, log)...)
	require.Len(t, s.jobs, 1)
	assert.Equal(t, "abandoned-carts", s.jobs[0].Name)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return cleaner.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	assert.Zero(t, sweeper.runs.Load())
}
