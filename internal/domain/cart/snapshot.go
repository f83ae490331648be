package cart

import (
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
)

// Line is a cart line as reported to clients. Stock fields are the product's
// levels at the time the snapshot was taken.
type Line struct {
	ID                 uint   `json:"id"`
	ProductID          uint   `json:"productId"`
	ProductName        string `json:"productName"`
	ProductUnit        string `json:"productUnit"`
	PricePerUnit       int64  `json:"pricePerUnit"`
	Quantity           int    `json:"quantity"`
	SubTotal           int64  `json:"subTotal"`
	StockQuantity      int    `json:"stockQuantity"`
	NearExpiryQuantity int    `json:"nearExpiryQuantity"`
	FreshMode          bool   `json:"freshMode"`
}

// Pool returns the stock pool the line draws from
func (l Line) Pool() inventory.Pool {
	return inventory.PoolFromFreshMode(l.FreshMode)
}

// Levels returns the product stock reported with the line
func (l Line) Levels() inventory.Levels {
	return inventory.Levels{StockQuantity: l.StockQuantity, NearExpiryQuantity: l.NearExpiryQuantity}
}

// Snapshot is the authoritative view of a cart
type Snapshot struct {
	Items      []Line `json:"items"`
	TotalPrice int64  `json:"totalPrice"`
}

// Empty returns a cart with no lines
func Empty() *Snapshot {
	return &Snapshot{Items: []Line{}}
}

// Find returns the line for a product and pool
func (s *Snapshot) Find(productID uint, pool inventory.Pool) (Line, bool) {
	if s == nil {
		return Line{}, false
	}
	for _, l := range s.Items {
		if l.ProductID == productID && l.Pool() == pool {
			return l, true
		}
	}
	return Line{}, false
}

// FindByID returns the line with the given id
func (s *Snapshot) FindByID(lineID uint) (Line, bool) {
	if s == nil {
		return Line{}, false
	}
	for _, l := range s.Items {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// Reserved returns the quantities of a product already committed per pool
func (s *Snapshot) Reserved(productID uint) inventory.Reserved {
	var r inventory.Reserved
	if s == nil {
		return r
	}
	for _, l := range s.Items {
		if l.ProductID == productID {
			r = r.Add(l.Pool(), l.Quantity)
		}
	}
	return r
}

// Sum adds up the reported line subtotals
func (s *Snapshot) Sum() int64 {
	if s == nil {
		return 0
	}
	var total int64
	for _, l := range s.Items {
		total += l.SubTotal
	}
	return total
}

// Count returns the total number of units in the cart
func (s *Snapshot) Count() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, l := range s.Items {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	items := make([]Line, len(s.Items))
	copy(items, s.Items)
	return &Snapshot{Items: items, TotalPrice: s.TotalPrice}
}
