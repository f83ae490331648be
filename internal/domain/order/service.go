// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrOrderNotFound        = errors.New("order not found")
	ErrCannotCancel         = errors.New("order cannot be cancelled")
)

// ProductInvalidator drops cached product data after stock changes
type ProductInvalidator interface {
	Invalidate(ctx context.Context, ids ...uint)
}

// Service handles order business logic
type Service struct {
	db          *gorm.DB
	config      *config.Config
	invalidator ProductInvalidator
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewService creates a new order service. invalidator may be nil.
func NewService(db *gorm.DB, cfg *config.Config, invalidator ProductInvalidator, log logrus.FieldLogger) *Service {
	return &Service{
		db:          db,
		config:      cfg,
		invalidator: invalidator,
		log:         log,
		now:         time.Now,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	AddressID     uint   `json:"addressId" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
	PromoCode     string `json:"promoCode"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// PlaceOrder turns the user's cart into an order. Every line is checked
// against its own pool under a row lock; one shortfall aborts the whole order.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (*Order, error) {
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var order Order
	var touched []uint

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []cart.CartItem
		if err := tx.Where("user_id = ?", userID).Find(&lines).Error; err != nil {
			return fmt.Errorf("failed to retrieve cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		// lock rows in a stable order
		sort.Slice(lines, func(i, j int) bool {
			if lines[i].ProductID != lines[j].ProductID {
				return lines[i].ProductID < lines[j].ProductID
			}
			return !lines[i].FreshMode && lines[j].FreshMode
		})

		now := s.now()
		items := make([]OrderItem, 0, len(lines))
		movements := make([]inventory.Movement, 0, len(lines))
		var subtotal int64

		for _, line := range lines {
			item, movement, err := s.takeStock(tx, line, now)
			if err != nil {
				return err
			}
			subtotal += item.TotalPrice
			items = append(items, *item)
			movements = append(movements, *movement)
			touched = append(touched, line.ProductID)
		}

		code, discount := s.promoDiscount(req.PromoCode, subtotal)
		order = Order{
			OrderNumber:    GenerateOrderNumber(now),
			UserID:         userID,
			AddressID:      req.AddressID,
			Status:         OrderStatusPending,
			PaymentMethod:  method,
			SubtotalAmount: subtotal,
			DiscountAmount: discount,
			TotalAmount:    subtotal - discount,
			PromoCode:      code,
			Items:          items,
		}
		order.AddStatusHistory(OrderStatusPending, "Order created", userID)

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range movements {
			movements[i].ReferenceType = "order"
			movements[i].ReferenceID = order.ID
			movements[i].CreatedBy = userID
		}
		if err := tx.Create(&movements).Error; err != nil {
			return fmt.Errorf("failed to record inventory movements: %w", err)
		}

		return cart.ClearCartTx(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, touched...)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"order_number": order.OrderNumber,
		"total":        pricing.Format(order.TotalAmount),
		"payment":      order.PaymentMethod,
	}).Info("order placed")

	return &order, nil
}

// takeStock locks the product row, checks the line against its pool and
// decrements it. Reduced units leave both the lot and the total.
func (s *Service) takeStock(tx *gorm.DB, line cart.CartItem, now time.Time) (*OrderItem, *inventory.Movement, error) {
	prod, err := lockProduct(tx.Preload("Discounts").Where("is_active = ?", true), line.ProductID)
	if err != nil {
		return nil, nil, err
	}

	pool := line.Pool()
	before := prod.Levels()
	available := before.Capacity(pool)
	if line.Quantity > available {
		return nil, nil, cart.InsufficientStock(prod.Name, pool, available)
	}

	after := before.Take(pool, line.Quantity)
	if err := setLevels(tx, prod.ID, after); err != nil {
		return nil, nil, err
	}

	unit := pricing.Resolve(product.ToResponse(prod, now).Quote, pool).Unit
	item := &OrderItem{
		ProductID:  prod.ID,
		Name:       prod.Name,
		FreshMode:  line.FreshMode,
		Quantity:   line.Quantity,
		Price:      unit,
		TotalPrice: pricing.Subtotal(unit, line.Quantity),
	}
	movement := inventory.NewMovement(prod.ID, pool, inventory.MovementTypeOutbound, inventory.ReasonSale, line.Quantity, before, after)
	return item, &movement, nil
}

func lockProduct(tx *gorm.DB, id uint) (*product.Product, error) {
	var prod product.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", product.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
	}
	return &prod, nil
}

func setLevels(tx *gorm.DB, productID uint, l inventory.Levels) error {
	err := tx.Model(&product.Product{}).Where("id = ?", productID).UpdateColumns(map[string]interface{}{
		"stock_quantity":       l.StockQuantity,
		"near_expiry_quantity": l.NearExpiryQuantity,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update product inventory: %w", err)
	}
	return nil
}

// promoDiscount returns the normalised code and the amount it takes off.
// Unknown codes are ignored.
func (s *Service) promoDiscount(code string, subtotal int64) (string, int64) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", 0
	}
	percent, ok := s.config.Orders.PromoCodes[code]
	if !ok {
		s.log.WithField("promo_code", code).Debug("unknown promo code ignored")
		return "", 0
	}
	return code, subtotal - pricing.PercentOff(subtotal, int64(percent))
}

// ListOrders returns the user's orders, newest first
func (s *Service) ListOrders(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// GetOrder retrieves one of the user's orders
func (s *Service) GetOrder(ctx context.Context, userID, id uint) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).Preload("Items").Preload("StatusHistory").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// CancelOrder cancels a pending order and puts its units back into the
// pools they were taken from.
func (s *Service) CancelOrder(ctx context.Context, userID, id uint, reason string) (*Order, error) {
	var touched []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").
			Where("id = ? AND user_id = ?", id, userID).
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to retrieve order: %w", err)
		}
		if !order.CanBeCancelled() {
			return fmt.Errorf("%w: status is %s", ErrCannotCancel, order.Status)
		}

		if err := restoreInventory(tx, &order, userID); err != nil {
			return err
		}
		for _, item := range order.Items {
			touched = append(touched, item.ProductID)
		}

		if err := tx.Model(&order).Update("status", OrderStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return tx.Create(&OrderStatusHistory{
			OrderID:   order.ID,
			Status:    OrderStatusCancelled,
			Comment:   reason,
			CreatedBy: userID,
			CreatedAt: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, touched...)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "order_id": id}).Info("order cancelled")

	return s.GetOrder(ctx, userID, id)
}

// restoreInventory puts every item back into the pool it was sold from
func restoreInventory(tx *gorm.DB, o *Order, userID uint) error {
	for _, item := range o.Items {
		prod, err := lockProduct(tx.Unscoped(), item.ProductID)
		if err != nil {
			return err
		}
		before := prod.Levels()
		after := before.Put(item.Pool(), item.Quantity)
		if err := setLevels(tx, prod.ID, after); err != nil {
			return fmt.Errorf("failed to restore inventory for product %d: %w", item.ProductID, err)
		}

		movement := inventory.NewMovement(prod.ID, item.Pool(), inventory.MovementTypeInbound, inventory.ReasonOrderCancelled, item.Quantity, before, after)
		movement.ReferenceType = "order"
		movement.ReferenceID = o.ID
		movement.CreatedBy = userID
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record inventory movement: %w", err)
		}
	}
	return nil
}
