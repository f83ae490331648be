// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints. Every successful mutation answers with
// the complete cart so clients can replace their copy.
type CartHandler struct {
	cartService *cart.Service
	log         logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		log:         log,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	snap, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	snap, err := h.cartService.AddToCart(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	lineID, ok := parseID(c, "id")
	if !ok {
		return
	}

	snap, err := h.cartService.RemoveItem(c.Request.Context(), userID, lineID)
	if err != nil {
		respondError(c, h.log, err, "Failed to remove item from cart")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	if err := h.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, cart.Empty())
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	count, err := h.cartService.GetCartItemCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to get cart count")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}
