package engine

import (
	"context"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// Product is what the engine needs to know about a product to check and price a request
type Product struct {
	ID     uint
	Name   string
	Levels inventory.Levels
	Quote  pricing.Quote
}

// FromResponse builds a product reference from the catalog response
func FromResponse(r *product.Response) Product {
	return Product{ID: r.ID, Name: r.Name, Levels: r.Levels, Quote: r.Quote}
}

// FromLine builds a product reference from a cart line. The line only knows
// its own unit price, so both pools are quoted at that price.
func FromLine(l cart.Line) Product {
	return Product{
		ID:     l.ProductID,
		Name:   l.ProductName,
		Levels: l.Levels(),
		Quote: pricing.Quote{
			BasePrice:     l.PricePerUnit,
			CurrentPrice:  l.PricePerUnit,
			UnitOfMeasure: l.ProductUnit,
		},
	}
}

// levels prefers the stock reported with the product's cart lines, which is
// refreshed after every mutation, over the caller's copy.
func levels(p Product, snap *cart.Snapshot) inventory.Levels {
	for _, l := range snap.Items {
		if l.ProductID == p.ID {
			return l.Levels()
		}
	}
	return p.Levels
}

func availability(p Product, snap *cart.Snapshot) inventory.Availability {
	return inventory.Check(levels(p, snap), snap.Reserved(p.ID))
}

// fits checks that qty more units of pool still fit what is left for p
func fits(p Product, pool inventory.Pool, qty int) func(*cart.Snapshot) error {
	return func(s *cart.Snapshot) error {
		avail := availability(p, s)
		if pool == inventory.PoolReduced && !avail.HasReducedPool {
			return errAtCap
		}
		if avail.In(pool) < qty {
			return errAtCap
		}
		return nil
	}
}

// addTentative shows qty more units of pool on the snapshot
func addTentative(p Product, pool inventory.Pool, qty int) func(*cart.Snapshot) {
	return func(s *cart.Snapshot) {
		unit := pricing.Resolve(p.Quote, pool).Unit
		sub := pricing.Subtotal(unit, qty)
		s.TotalPrice += sub
		for i := range s.Items {
			if s.Items[i].ProductID == p.ID && s.Items[i].Pool() == pool {
				s.Items[i].Quantity += qty
				s.Items[i].SubTotal += sub
				return
			}
		}
		s.Items = append(s.Items, cart.Line{
			ProductID:          p.ID,
			ProductName:        p.Name,
			ProductUnit:        p.Quote.UnitOfMeasure,
			PricePerUnit:       unit,
			Quantity:           qty,
			SubTotal:           sub,
			StockQuantity:      p.Levels.StockQuantity,
			NearExpiryQuantity: p.Levels.NearExpiryQuantity,
			FreshMode:          pool.FreshMode(),
		})
	}
}

func removeTentative(lineID uint) func(*cart.Snapshot) {
	return func(s *cart.Snapshot) {
		for i := range s.Items {
			if s.Items[i].ID == lineID {
				s.TotalPrice -= s.Items[i].SubTotal
				s.Items = append(s.Items[:i], s.Items[i+1:]...)
				return
			}
		}
	}
}

func addCall(productID uint, qty int, pool inventory.Pool) remoteCall {
	return func(ctx context.Context, r Remote) (*cart.Snapshot, error) {
		return r.AddLine(ctx, productID, qty, pool)
	}
}

func removeCall(lineID uint) remoteCall {
	return func(ctx context.Context, r Remote) (*cart.Snapshot, error) {
		return r.RemoveLine(ctx, lineID)
	}
}
