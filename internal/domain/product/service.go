// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
)

// ErrNotFound is returned when a product does not exist or is inactive
var ErrNotFound = errors.New("product not found")

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	cache  *Cache
	config *config.Config
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService creates a new product service. redisClient may be nil, which disables caching.
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		cache:  NewCache(redisClient, cfg.Catalog.CacheTTL),
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page         int    `form:"page,default=1"`
	Limit        int    `form:"limit,default=20"`
	Category     string `form:"category"`
	Search       string `form:"search"`
	ExpiringOnly bool   `form:"expiring"`
}

// ListResponse represents a page of priced products
type ListResponse struct {
	Products   []Response `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// CreateRequest represents product creation data
type CreateRequest struct {
	Name           string     `json:"name" binding:"required"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Brand          string     `json:"brand"`
	Price          int64      `json:"price" binding:"required,min=1"`
	StockQuantity  int        `json:"stockQuantity" binding:"min=0"`
	UnitOfMeasure  string     `json:"unitOfMeasure"`
	ExpirationDate *time.Time `json:"expirationDate"`
}

// UpdateInventoryRequest sets both stock pools at once
type UpdateInventoryRequest struct {
	StockQuantity      int `json:"stockQuantity" binding:"min=0"`
	NearExpiryQuantity int `json:"nearExpiryQuantity" binding:"min=0"`
}

// SweepResult summarises a clearance sweep
type SweepResult struct {
	Marked  int `json:"marked"`
	Removed int `json:"removed"`
}

// GetProduct returns a priced product, served from cache when possible
func (s *Service) GetProduct(ctx context.Context, id uint) (*Response, error) {
	if cached, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("product cache read failed")
	} else if ok {
		return cached, nil
	}

	var p Product
	err := s.db.WithContext(ctx).Preload("Discounts").
		Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}

	now := s.now()
	resp := ToResponse(&p, now)
	if err := s.cache.Set(ctx, &resp, now, p.PriceChangesAt(now)); err != nil {
		s.log.WithError(err).WithField("product_id", id).Warn("product cache write failed")
	}
	return &resp, nil
}

// ListProducts retrieves priced products with filtering and pagination
func (s *Service) ListProducts(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)

	if req.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(req.Category))
	}
	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}
	if req.ExpiringOnly {
		cutoff := s.now().AddDate(0, 0, s.config.Catalog.ClearanceWindowDays)
		query = query.Where("expiration_date IS NOT NULL AND expiration_date <= ?", cutoff)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := query.Preload("Discounts").
		Order("id ASC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	now := s.now()
	out := make([]Response, len(products))
	for i := range products {
		out[i] = ToResponse(&products[i], now)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Products: out,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
		},
	}, nil
}

// CreateProduct creates a product with no clearance lot
func (s *Service) CreateProduct(ctx context.Context, req *CreateRequest) (*Response, error) {
	unit := req.UnitOfMeasure
	if unit == "" {
		unit = "buc"
	}
	p := &Product{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Brand:          req.Brand,
		Price:          req.Price,
		StockQuantity:  req.StockQuantity,
		UnitOfMeasure:  unit,
		ExpirationDate: req.ExpirationDate,
		IsActive:       true,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	resp := ToResponse(p, s.now())
	return &resp, nil
}

// UpdateInventory replaces the stock pools of a product and records the
// adjustment in the stock ledger.
func (s *Service) UpdateInventory(ctx context.Context, id uint, req *UpdateInventoryRequest) (*Response, error) {
	after := inventory.Levels{StockQuantity: req.StockQuantity, NearExpiryQuantity: req.NearExpiryQuantity}
	if err := after.Validate(); err != nil {
		return nil, err
	}

	var before inventory.Levels
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		before = p.Levels()

		err = tx.Model(&Product{}).Where("id = ?", id).Updates(map[string]interface{}{
			"stock_quantity":       after.StockQuantity,
			"near_expiry_quantity": after.NearExpiryQuantity,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}

		movement := inventory.NewMovement(id, "", inventory.MovementTypeAdjustment, inventory.ReasonAdjustment,
			after.StockQuantity-before.StockQuantity, before, after)
		return tx.Create(&movement).Error
	})
	if err != nil {
		return nil, err
	}

	s.Invalidate(ctx, id)
	s.log.WithFields(logrus.Fields{
		"product_id":  id,
		"stock":       after.StockQuantity,
		"near_expiry": after.NearExpiryQuantity,
		"previous":    before.StockQuantity,
	}).Info("inventory updated")

	return s.GetProduct(ctx, id)
}

// ListMovements returns the newest entries of a product's stock ledger
func (s *Service) ListMovements(ctx context.Context, productID uint, limit int) ([]inventory.Movement, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var movements []inventory.Movement
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve inventory movements: %w", err)
	}
	return movements, nil
}

// AddDiscount attaches a promotional discount to a product
func (s *Service) AddDiscount(ctx context.Context, productID uint, kind pricing.DiscountType, value int64, startsAt, endsAt time.Time) error {
	if !kind.Promotional() {
		return fmt.Errorf("unsupported discount type %q", kind)
	}
	d := &Discount{ProductID: productID, Type: kind, Value: value, StartsAt: startsAt, EndsAt: endsAt}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}
	s.Invalidate(ctx, productID)
	return nil
}

// SweepClearanceLots marks products entering the clearance window as a
// reduced lot and writes off lots that have expired. Each product is
// re-read under a row lock so that stock taken by orders since the
// candidate scan is kept.
func (s *Service) SweepClearanceLots(ctx context.Context) (*SweepResult, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&Product{}).
		Where("expiration_date IS NOT NULL").
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load products for sweep: %w", err)
	}

	now := s.now()
	result := &SweepResult{}

	for _, id := range ids {
		var movement *inventory.Movement
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error; err != nil {
				return err
			}

			movement = s.sweepLot(&p, now)
			if movement == nil {
				return nil
			}

			err := tx.Model(&Product{}).Where("id = ?", id).Updates(map[string]interface{}{
				"stock_quantity":       p.StockQuantity,
				"near_expiry_quantity": p.NearExpiryQuantity,
			}).Error
			if err != nil {
				return err
			}
			return tx.Create(movement).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to update product %d: %w", id, err)
		}
		if movement == nil {
			continue
		}

		fields := logrus.Fields{"product_id": id, "units": movement.Quantity}
		switch movement.Reason {
		case inventory.ReasonClearanceMark:
			result.Marked++
			s.log.WithFields(fields).Info("clearance lot marked")
		case inventory.ReasonExpired:
			result.Removed++
			s.log.WithFields(fields).Warn("expired clearance lot removed")
		}
		s.Invalidate(ctx, id)
	}

	return result, nil
}

// sweepLot applies the sweep rules to p in place and returns the ledger entry
// for the change, or nil when the product is left as it is.
func (s *Service) sweepLot(p *Product, now time.Time) *inventory.Movement {
	if p.ExpirationDate == nil {
		return nil
	}
	days := pricing.DaysUntil(*p.ExpirationDate, now)
	before := p.Levels()

	var m inventory.Movement
	switch {
	case days >= 0 && days <= s.config.Catalog.ClearanceWindowDays && p.NearExpiryQuantity == 0 && p.StockQuantity > 0:
		p.NearExpiryQuantity = p.StockQuantity
		m = inventory.NewMovement(p.ID, inventory.PoolReduced, inventory.MovementTypeTransfer,
			inventory.ReasonClearanceMark, p.NearExpiryQuantity, before, p.Levels())
	case days < 0 && p.NearExpiryQuantity > 0:
		expired := p.NearExpiryQuantity
		p.StockQuantity = max(0, p.StockQuantity-expired)
		p.NearExpiryQuantity = 0
		m = inventory.NewMovement(p.ID, inventory.PoolReduced, inventory.MovementTypeOutbound,
			inventory.ReasonExpired, expired, before, p.Levels())
	default:
		return nil
	}
	return &m
}

// Invalidate drops cached responses for the given products
func (s *Service) Invalidate(ctx context.Context, ids ...uint) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.log.WithError(err).Warn("product cache invalidation failed")
	}
}
