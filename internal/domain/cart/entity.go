// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// CartItem is one persisted cart line. A user has at most one line per
// product and pool.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`
	FreshMode bool      `gorm:"not null;default:false;uniqueIndex:idx_cart_line" json:"fresh_mode"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Price     int64     `gorm:"not null" json:"price"` // Unit price at time of adding
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product product.Product `gorm:"foreignKey:ProductID" json:"-"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// Pool returns the stock pool the line draws from
func (c *CartItem) Pool() inventory.Pool {
	return inventory.PoolFromFreshMode(c.FreshMode)
}
