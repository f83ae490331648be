// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
)

// Product represents a grocery product and its two stock pools
type Product struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"not null;size:255" json:"name"`
	Description        string         `gorm:"type:text" json:"description"`
	Category           string         `gorm:"size:100;index" json:"category"`
	Brand              string         `gorm:"size:100" json:"brand"`
	Price              int64          `gorm:"not null" json:"price"` // Base price in cents
	StockQuantity      int            `gorm:"not null;default:0" json:"stock_quantity"`
	NearExpiryQuantity int            `gorm:"not null;default:0" json:"near_expiry_quantity"` // Subset of StockQuantity
	UnitOfMeasure      string         `gorm:"not null;size:20;default:'buc'" json:"unit_of_measure"`
	ExpirationDate     *time.Time     `gorm:"index" json:"expiration_date,omitempty"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Discounts []Discount `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"discounts,omitempty"`
}

// Discount is a time-windowed promotional discount
type Discount struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	ProductID uint                 `gorm:"not null;index" json:"product_id"`
	Type      pricing.DiscountType `gorm:"not null;size:20" json:"type"` // PERCENT or FIXED
	Value     int64                `gorm:"not null" json:"value"`        // Whole percent or cents
	StartsAt  time.Time            `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time            `gorm:"not null" json:"ends_at"`
	CreatedAt time.Time            `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Discount) TableName() string { return "product_discounts" }

// Levels returns the product's stock pools
func (p *Product) Levels() inventory.Levels {
	return inventory.Levels{StockQuantity: p.StockQuantity, NearExpiryQuantity: p.NearExpiryQuantity}
}

// ActiveDiscount returns the first discount whose window contains now
func (p *Product) ActiveDiscount(now time.Time) *Discount {
	for i := range p.Discounts {
		d := &p.Discounts[i]
		if !now.Before(d.StartsAt) && now.Before(d.EndsAt) {
			return d
		}
	}
	return nil
}

// PriceChangesAt returns the next instant after now at which ToResponse may
// price the product differently: a discount window opening or closing, or
// the next calendar day while the product has an expiry date. It is zero
// when nothing is scheduled.
func (p *Product) PriceChangesAt(now time.Time) time.Time {
	var next time.Time
	consider := func(t time.Time) {
		if t.After(now) && (next.IsZero() || t.Before(next)) {
			next = t
		}
	}
	for _, d := range p.Discounts {
		consider(d.StartsAt)
		consider(d.EndsAt)
	}
	if p.ExpirationDate != nil {
		y, m, d := now.Date()
		consider(time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()))
	}
	return next
}

// Response is the product as served to the storefront
type Response struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"categoryName,omitempty"`
	Brand       string `json:"brandName,omitempty"`

	pricing.Quote
	DiscountValue int64 `json:"discountValue,omitempty"`

	inventory.Levels
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// ToResponse prices a product at the given instant. A promotion wins over the
// clearance markdown; the markdown only counts while a reduced lot exists.
func ToResponse(p *Product, now time.Time) Response {
	resp := Response{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		Quote: pricing.Quote{
			BasePrice:     p.Price,
			CurrentPrice:  p.Price,
			UnitOfMeasure: p.UnitOfMeasure,
		},
		Levels:         p.Levels(),
		ExpirationDate: p.ExpirationDate,
	}

	if d := p.ActiveDiscount(now); d != nil {
		resp.CurrentPrice = pricing.ApplyDiscount(p.Price, d.Type, d.Value)
		resp.DiscountType = d.Type
		resp.DiscountValue = p.Price - resp.CurrentPrice
		resp.HasActiveDiscount = resp.CurrentPrice < p.Price
		return resp
	}

	if marked, ok := pricing.ClearancePrice(p.Price, p.ExpirationDate, now); ok && p.NearExpiryQuantity > 0 && marked < p.Price {
		resp.CurrentPrice = marked
		resp.DiscountType = pricing.DiscountClearance
		resp.DiscountValue = p.Price - marked
		resp.HasActiveDiscount = true
	}
	return resp
}
