// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/order"
	"github.com/your-org/grocery-storefront/internal/domain/pricing"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
		now: time.Now,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// Product domain - Base tables
		&product.Product{},
		&product.Discount{},
		&inventory.Movement{},

		// Cart domain
		&cart.CartItem{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes. A failing index is logged and
// skipped.
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_clearance ON products(expiration_date) WHERE near_expiry_quantity > 0",
		"CREATE INDEX IF NOT EXISTS idx_product_discounts_window ON product_discounts(product_id, starts_at, ends_at)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_movements_product_created ON inventory_movements(product_id, created_at DESC)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_updated_at ON cart_items(updated_at)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
	}

	failed := 0
	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			m.log.WithError(err).WithField("statement", stmt).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("database indexes created")
	return nil
}

// SeedInitialData inserts a small catalog for development. It does nothing
// when products already exist.
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		m.log.Debug("catalog already seeded")
		return nil
	}

	now := m.now().UTC()
	soon := now.AddDate(0, 0, 2)
	later := now.AddDate(0, 0, 5)
	far := now.AddDate(0, 3, 0)

	products := []product.Product{
		{
			Name: "Lapte integral 3.5%", Category: "Lactate", Brand: "Zuzu",
			Price: 899, StockQuantity: 40, NearExpiryQuantity: 12,
			UnitOfMeasure: "l", ExpirationDate: &soon, IsActive: true,
		},
		{
			Name: "Iaurt grecesc", Category: "Lactate", Brand: "Olympus",
			Price: 649, StockQuantity: 25, NearExpiryQuantity: 8,
			UnitOfMeasure: "buc", ExpirationDate: &later, IsActive: true,
		},
		{
			Name: "Paine feliata", Category: "Panificatie", Brand: "Vel Pitar",
			Price: 599, StockQuantity: 30,
			UnitOfMeasure: "buc", ExpirationDate: &far, IsActive: true,
		},
		{
			Name: "Rosii cherry", Category: "Legume", Brand: "",
			Price: 1499, StockQuantity: 20,
			UnitOfMeasure: "kg", IsActive: true,
		},
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}

		promo := product.Discount{
			ProductID: products[3].ID,
			Type:      pricing.DiscountPercent,
			Value:     15,
			StartsAt:  now.Add(-time.Hour),
			EndsAt:    now.AddDate(0, 0, 14),
		}
		if err := tx.Create(&promo).Error; err != nil {
			return fmt.Errorf("failed to seed discount: %w", err)
		}

		m.log.WithField("products", len(products)).Info("catalog seeded")
		return nil
	})
}

// DropAllTables drops every table, dependents first
func (m *Migration) DropAllTables() error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	m.log.Warn("all tables dropped")
	return nil
}
