package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
)

var (
	// ErrUnauthenticated is returned for cart and order calls made without a token
	ErrUnauthenticated = errors.New("not signed in")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return e.Message
}

// Unwrap maps the status to the matching sentinel so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return cart.ErrInsufficientStock
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return nil
	}
}

// stockConflictPhrases are the messages older backends use for a stock
// conflict that they do not report as 409
var stockConflictPhrases = []string{"insufficient stock", "stoc insuficient"}

// IsStockConflict reports whether the backend refused because stock ran out.
// Older backends only signal this in the message text.
func IsStockConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, cart.ErrInsufficientStock) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range stockConflictPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
