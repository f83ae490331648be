package engine

import (
	"errors"

	"github.com/your-org/grocery-storefront/internal/storefront/remote"
)

// UserMessage turns an engine error into the text shown to a shopper. It
// returns "" for outcomes that are not shown, such as an ignored busy click.
func UserMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, ErrBusy), errors.Is(err, ErrDiscarded):
		return ""
	case errors.Is(err, ErrSignedOut), errors.Is(err, remote.ErrUnauthenticated):
		return "Please sign in to use your cart."
	case errors.Is(err, ErrStaleConflict):
		return "Stock changed while you were choosing. Please review the quantity again."
	case errors.Is(err, ErrExceedsStock):
		return "There is not enough stock for that quantity."
	case errors.Is(err, ErrInvalidQuantity):
		return "Choose at least one unit."
	case errors.Is(err, ErrDecrementDisabled):
		return "Remove the item to lower its quantity."
	case remote.IsStockConflict(err):
		return "Some items are no longer available in that quantity. Your cart has been updated."
	default:
		return "Something went wrong. Please try again."
	}
}
