// Package checkout submits the session's cart as an order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/domain/order"
	"github.com/your-org/grocery-storefront/internal/storefront/engine"
	"github.com/your-org/grocery-storefront/internal/storefront/remote"
)

// ErrAddressRequired is returned when no delivery address was chosen
var ErrAddressRequired = errors.New("choose a delivery address")

// Destination is where the shopper is sent after submitting
type Destination string

const (
	ToConfirmation Destination = "confirmation"
	ToCart         Destination = "cart"
)

// OrderPlacer submits orders to the backend
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *order.CreateOrderRequest) (*order.Order, error)
}

// Request is what the checkout form collects
type Request struct {
	AddressID     uint
	PaymentMethod string
	PromoCode     string
}

// Result is the outcome of a submitted checkout
type Result struct {
	Order    *order.Order
	Redirect Destination
	Message  string
}

// Flow drives checkout for one session
type Flow struct {
	placer OrderPlacer
	cart   *engine.Engine
	log    logrus.FieldLogger
}

// NewFlow creates a checkout flow over the session cart
func NewFlow(placer OrderPlacer, cart *engine.Engine, log logrus.FieldLogger) *Flow {
	return &Flow{placer: placer, cart: cart, log: log}
}

// Submit places the order. When the backend reports that stock ran out the
// cart is reloaded and the shopper is sent back to it to review quantities.
func (f *Flow) Submit(ctx context.Context, req Request) (*Result, error) {
	if len(f.cart.Snapshot().Items) == 0 {
		return &Result{Redirect: ToCart, Message: "Your cart is empty."}, nil
	}
	if req.AddressID == 0 {
		return nil, ErrAddressRequired
	}
	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	placed, err := f.placer.PlaceOrder(ctx, &order.CreateOrderRequest{
		AddressID:     req.AddressID,
		PaymentMethod: string(method),
		PromoCode:     req.PromoCode,
	})
	if err != nil {
		if remote.IsStockConflict(err) {
			f.log.WithError(err).Warn("checkout hit a stock conflict, returning to cart")
			f.reload(ctx)
			return &Result{
				Redirect: ToCart,
				Message:  fmt.Sprintf("%s. Please review your cart.", err.Error()),
			}, nil
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	f.reload(ctx)
	f.log.WithField("order_number", placed.OrderNumber).Info("order confirmed")
	return &Result{Order: placed, Redirect: ToConfirmation}, nil
}

func (f *Flow) reload(ctx context.Context) {
	if err := f.cart.Refresh(ctx); err != nil {
		f.log.WithError(err).Warn("cart reload after checkout failed")
	}
}
