package cart

import (
	"errors"
	"fmt"

	"github.com/your-org/grocery-storefront/internal/domain/inventory"
)

var (
	// ErrInsufficientStock is returned when a quantity does not fit the remaining units of its pool
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// InsufficientStock builds the stock error for a product and pool. The message
// always starts with "insufficient stock" so clients can match on it.
func InsufficientStock(productName string, pool inventory.Pool, available int) error {
	return fmt.Errorf("%w for %s: %d available at %s price", ErrInsufficientStock, productName, available, pool)
}
