// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
	FreshMode bool `json:"freshMode"`
}

// GetCart returns the user's cart snapshot, lines ordered by id
func (s *Service) GetCart(ctx context.Context, userID uint) (*Snapshot, error) {
	var items []CartItem
	err := s.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return buildSnapshot(items), nil
}

// AddToCart merges a quantity into the user's line for the product and pool.
// The merged quantity must fit the pool, and the line is re-priced.
func (s *Service) AddToCart(ctx context.Context, userID uint, req *AddToCartRequest) (*Snapshot, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	pool := inventory.PoolFromFreshMode(req.FreshMode)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod product.Product
		err := tx.Preload("Discounts").
			Where("id = ? AND is_active = ?", req.ProductID, true).
			First(&prod).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return product.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}

		var line CartItem
		err = tx.Where("user_id = ? AND product_id = ? AND fresh_mode = ?", userID, req.ProductID, req.FreshMode).
			First(&line).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load cart line: %w", err)
		}

		capacity := prod.Levels().Capacity(pool)
		merged := line.Quantity + req.Quantity
		if merged > capacity {
			return InsufficientStock(prod.Name, pool, max(0, capacity-line.Quantity))
		}

		quote := product.ToResponse(&prod, s.now()).Quote
		unit := pricing.Resolve(quote, pool).Unit

		if !exists {
			line = CartItem{
				UserID:    userID,
				ProductID: req.ProductID,
				FreshMode: req.FreshMode,
				Quantity:  merged,
				Price:     unit,
			}
			return tx.Omit("Product").Create(&line).Error
		}

		line.Quantity = merged
		line.Price = unit // Update price in case it changed
		return tx.Omit("Product").Save(&line).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": req.ProductID,
		"pool":       pool,
		"quantity":   req.Quantity,
	}).Debug("cart line added")

	return s.GetCart(ctx, userID)
}

// RemoveItem deletes one of the user's lines regardless of quantity
func (s *Service) RemoveItem(ctx context.Context, userID, lineID uint) (*Snapshot, error) {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", lineID, userID).Delete(&CartItem{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to remove cart line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrLineNotFound
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "line_id": lineID}).Debug("cart line removed")
	return s.GetCart(ctx, userID)
}

// ClearCart removes every line from the user's cart
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	return ClearCartTx(s.db.WithContext(ctx), userID)
}

// ClearCartTx removes every line from the user's cart inside tx
func ClearCartTx(tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetCartItemCount returns the number of units in the user's cart
func (s *Service) GetCartItemCount(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return int(total), nil
}

// ClearAbandoned empties carts whose lines have all been untouched for the
// configured period and returns the number of lines removed.
func (s *Service) ClearAbandoned(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.Cart.AbandonAfter)

	stale := s.db.Model(&CartItem{}).
		Select("user_id").
		Group("user_id").
		Having("MAX(updated_at) < ?", cutoff)

	result := s.db.WithContext(ctx).Where("user_id IN (?)", stale).Delete(&CartItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear abandoned carts: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.log.WithField("lines", result.RowsAffected).Info("abandoned carts cleared")
	}
	return result.RowsAffected, nil
}

func buildSnapshot(items []CartItem) *Snapshot {
	snap := Empty()
	for i := range items {
		item := &items[i]
		line := Line{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.Product.Name,
			ProductUnit:        item.Product.UnitOfMeasure,
			PricePerUnit:       item.Price,
			Quantity:           item.Quantity,
			SubTotal:           pricing.Subtotal(item.Price, item.Quantity),
			StockQuantity:      item.Product.StockQuantity,
			NearExpiryQuantity: item.Product.NearExpiryQuantity,
			FreshMode:          item.FreshMode,
		}
		snap.Items = append(snap.Items, line)
		snap.TotalPrice += line.SubTotal
	}
	return snap
}
