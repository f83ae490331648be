// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/order"
	"github.com/your-org/grocery-storefront/internal/domain/product"
	"github.com/your-org/grocery-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/grocery-storefront/internal/interfaces/http/middleware"
)

// Handlers groups the API handlers sharing one set of services
type Handlers struct {
	Product   *handlers.ProductHandler
	Cart      *handlers.CartHandler
	Order     *handlers.OrderHandler
	Inventory *handlers.InventoryHandler
}

// NewHandlers wires services and handlers. redisClient may be nil, in which
// case products are not cached.
func NewHandlers(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logrus.FieldLogger) *Handlers {
	productService := product.NewService(db, redisClient, cfg, log.WithField("component", "product"))
	cartService := cart.NewService(db, cfg, log.WithField("component", "cart"))
	orderService := order.NewService(db, cfg, productService, log.WithField("component", "order"))

	return &Handlers{
		Product:   handlers.NewProductHandler(productService, log),
		Cart:      handlers.NewCartHandler(cartService, log),
		Order:     handlers.NewOrderHandler(orderService, log),
		Inventory: handlers.NewInventoryHandler(productService, log),
	}
}

// SetupProductRoutes sets up public catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/categories", h.Product.GetCategories)
		products.GET("/:id", h.Product.GetProduct)
	}
}

// SetupCartRoutes sets up cart routes
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers, authn *middleware.Authenticator) {
	cartGroup := rg.Group("/cart")
	cartGroup.Use(authn.RequireUser())
	{
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.DELETE("", h.Cart.ClearCart)
		cartGroup.GET("/count", h.Cart.GetCartCount)
		cartGroup.POST("/items", h.Cart.AddToCart)
		cartGroup.DELETE("/items/:id", h.Cart.RemoveFromCart)
	}
}

// SetupOrderRoutes sets up order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers, authn *middleware.Authenticator) {
	orders := rg.Group("/orders")
	orders.Use(authn.RequireUser())
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("", h.Order.GetOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.POST("/:id/cancel", h.Order.CancelOrder)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, authn *middleware.Authenticator) {
	admin := rg.Group("/admin")
	admin.Use(authn.RequireUser(), authn.RequireAdmin())
	{
		products := admin.Group("/products")
		{
			products.POST("", h.Inventory.CreateProduct)
			products.PUT("/:id/inventory", h.Inventory.UpdateInventory)
			products.GET("/:id/movements", h.Inventory.GetMovements)
			products.POST("/:id/discounts", h.Inventory.AddDiscount)
		}

		admin.POST("/inventory/sweep", h.Inventory.SweepClearance)
	}
}

// SetupRoutes registers every API route on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, authn *middleware.Authenticator) {
	SetupProductRoutes(rg, h)
	SetupCartRoutes(rg, h, authn)
	SetupOrderRoutes(rg, h, authn)
	SetupAdminRoutes(rg, h, authn)
}
