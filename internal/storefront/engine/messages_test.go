package engine

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/grocery-storefront/internal/storefront/remote"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"busy", ErrBusy, ""},
		{"discarded", fmt.Errorf("add: %w", ErrDiscarded), ""},
		{"signed out", ErrSignedOut, "Please sign in to use your cart."},
		{"no token", remote.ErrUnauthenticated, "Please sign in to use your cart."},
		{"stale", ErrStaleConflict, "Stock changed while you were choosing. Please review the quantity again."},
		{"exceeds", fmt.Errorf("%w: 9 requested", ErrExceedsStock), "There is not enough stock for that quantity."},
		{"quantity", ErrInvalidQuantity, "Choose at least one unit."},
		{"decrement", ErrDecrementDisabled, "Remove the item to lower its quantity."},
		{
			"server conflict",
			&remote.APIError{Status: http.StatusConflict, Message: "insufficient stock for Milk"},
			"Some items are no longer available in that quantity. Your cart has been updated.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
