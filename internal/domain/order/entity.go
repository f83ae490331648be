// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentMethod is how the shopper pays on delivery
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

// ParsePaymentMethod accepts CASH or CARD in any case; empty means CASH
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PaymentMethodCash:
		return PaymentMethodCash, nil
	case PaymentMethodCard:
		return PaymentMethodCard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
}

// Order represents the order entity
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"orderNumber"`
	UserID        uint          `gorm:"not null;index" json:"userId"`
	AddressID     uint          `gorm:"not null" json:"addressId"`
	Status        OrderStatus   `gorm:"not null;default:'pending'" json:"status"`
	PaymentMethod PaymentMethod `gorm:"not null;size:10" json:"paymentMethod"`

	// Financial Information
	SubtotalAmount int64  `gorm:"not null" json:"subtotalAmount"` // In cents
	DiscountAmount int64  `gorm:"default:0" json:"discountAmount"`
	TotalAmount    int64  `gorm:"not null" json:"totalAmount"`
	PromoCode      string `gorm:"size:50" json:"promoCode,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"statusHistory,omitempty"`
}

// OrderItem represents one priced line of an order
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"orderId"`
	ProductID  uint      `gorm:"not null;index" json:"productId"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	FreshMode  bool      `gorm:"not null;default:false" json:"freshMode"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Price      int64     `gorm:"not null" json:"price"`      // Price per unit in cents
	TotalPrice int64     `gorm:"not null" json:"totalPrice"` // Quantity * Price
	CreatedAt  time.Time `json:"createdAt"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"orderId"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Pool returns the stock pool the item was taken from
func (i *OrderItem) Pool() inventory.Pool {
	return inventory.PoolFromFreshMode(i.FreshMode)
}

// GenerateOrderNumber returns a reference like ORD-20260310-9F1C2A7B
func GenerateOrderNumber(now time.Time) string {
	ref := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), ref)
}

// FormattedTotal returns the total as a decimal string
func (o *Order) FormattedTotal() string {
	return pricing.Format(o.TotalAmount)
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// AddStatusHistory adds a new status change to history
func (o *Order) AddStatusHistory(status OrderStatus, comment string, createdBy uint) {
	o.StatusHistory = append(o.StatusHistory, OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
}
