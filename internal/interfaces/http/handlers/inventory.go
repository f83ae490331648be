// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// InventoryHandler handles admin catalog and stock endpoints
type InventoryHandler struct {
	productService *product.Service
	log            logrus.FieldLogger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(productService *product.Service, log logrus.FieldLogger) *InventoryHandler {
	return &InventoryHandler{
		productService: productService,
		log:            log,
	}
}

type addDiscountRequest struct {
	Type     pricing.DiscountType `json:"type" binding:"required"`
	Value    int64                `json:"value" binding:"required,min=1"`
	StartsAt time.Time            `json:"startsAt" binding:"required"`
	EndsAt   time.Time            `json:"endsAt" binding:"required"`
}

// CreateProduct handles POST /admin/products
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req product.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateInventory handles PUT /admin/products/:id/inventory
func (h *InventoryHandler) UpdateInventory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	updated, err := h.productService.UpdateInventory(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update inventory")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// AddDiscount handles POST /admin/products/:id/discounts
func (h *InventoryHandler) AddDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !req.Type.Promotional() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Discount type must be PERCENT or FIXED",
		})
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "endsAt must be after startsAt",
		})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.productService.GetProduct(ctx, id); err != nil {
		respondError(c, h.log, err, "Failed to add discount")
		return
	}
	if err := h.productService.AddDiscount(ctx, id, req.Type, req.Value, req.StartsAt, req.EndsAt); err != nil {
		respondError(c, h.log, err, "Failed to add discount")
		return
	}

	updated, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		respondError(c, h.log, err, "Failed to add discount")
		return
	}
	c.JSON(http.StatusCreated, updated)
}

type listMovementsQuery struct {
	Limit int `form:"limit,default=50"`
}

// GetMovements handles GET /admin/products/:id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var q listMovementsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	movements, err := h.productService.ListMovements(c.Request.Context(), id, q.Limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve inventory movements")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
	})
}

// SweepClearance handles POST /admin/inventory/sweep
func (h *InventoryHandler) SweepClearance(c *gin.Context) {
	result, err := h.productService.SweepClearanceLots(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Clearance sweep failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
