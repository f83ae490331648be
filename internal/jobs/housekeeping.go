package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// ClearanceSweeper marks and expires clearance lots
type ClearanceSweeper interface {
	SweepClearanceLots(ctx context.Context) (*product.SweepResult, error)
}

// CartCleaner deletes carts that have not been touched for a while
type CartCleaner interface {
	ClearAbandoned(ctx context.Context) (int64, error)
}

// ClearanceSweep returns the job keeping reduced-price lots in line with expiry dates
func ClearanceSweep(sweeper ClearanceSweeper, interval time.Duration, log logrus.FieldLogger) Job {
	return Job{
		Name:     "clearance-sweep",
		Interval: interval,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			result, err := sweeper.SweepClearanceLots(ctx)
			if err != nil {
				return err
			}
			if result.Marked > 0 || result.Removed > 0 {
				log.WithFields(logrus.Fields{
					"marked":  result.Marked,
					"removed": result.Removed,
				}).Info("clearance lots updated")
			}
			return nil
		},
	}
}

// AbandonedCarts returns the job removing stale carts
func AbandonedCarts(cleaner CartCleaner, interval time.Duration, log logrus.FieldLogger) Job {
	return Job{
		Name:     "abandoned-carts",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := cleaner.ClearAbandoned(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				log.WithField("lines", n).Info("abandoned cart lines removed")
			}
			return nil
		},
	}
}

// Housekeeping builds the backend's standard job set from configuration
func Housekeeping(cfg *config.Config, sweeper ClearanceSweeper, cleaner CartCleaner, log logrus.FieldLogger) []Job {
	return []Job{
		ClearanceSweep(sweeper, cfg.Catalog.SweepInterval, log),
		AbandonedCarts(cleaner, cfg.Cart.CleanupInterval, log),
	}
}
