// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/cart"
	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/domain/feedback"
	"github.com/your-org/flooring-store/internal/domain/inventory"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/user"
)

// Migration handles database migrations and development seed data
type Migration struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{db: db, log: log}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	// dependency order
	models := []interface{}{
		&user.User{},

		&catalog.Category{},
		&catalog.SubCategory{},
		&catalog.Product{},
		&inventory.StockMovement{},

		&cart.Cart{},
		&cart.LineItem{},

		&order.Payment{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},

		&feedback.Feedback{},
	}

	for _, model := range models {
		m.log.Debugf("migrating model %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates composite indexes the struct tags cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_subcategory_active ON products(sub_category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_subcategories_category_active ON subcategories(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_orders_owner_created ON orders(owner_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_owner_idempotency_unique ON orders(owner_id, idempotency_key) WHERE idempotency_key <> ''",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at DESC)",
	}

	failed := 0
	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			m.log.WithError(err).WithField("sql", stmt).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("database indexes ensured")
	return nil
}

type seedSubCategory struct {
	name     string
	products []catalog.ProductCreateRequest
}

type seedCategory struct {
	name, description string
	subs              []seedSubCategory
}

var sampleCatalog = []seedCategory{
	{
		name:        "Wooden Flooring",
		description: "Engineered and solid hardwood planks",
		subs: []seedSubCategory{
			{name: "Engineered Oak", products: []catalog.ProductCreateRequest{
				{SKU: "WF-OAK-NAT-14", Name: "Natural Oak Engineered Plank", Material: "Oak", Finish: "Matte lacquer", Thickness: "14mm", Unit: "box", Coverage: 21.5, Price: 2400, Stock: 180},
				{SKU: "WF-OAK-SMK-14", Name: "Smoked Oak Engineered Plank", Material: "Oak", Finish: "Brushed oil", Thickness: "14mm", Unit: "box", Coverage: 21.5, Price: 3100, Stock: 90},
			}},
			{name: "Solid Teak", products: []catalog.ProductCreateRequest{
				{SKU: "WF-TEAK-18", Name: "Burma Teak Solid Plank", Material: "Teak", Finish: "Natural oil", Thickness: "18mm", Unit: "box", Coverage: 16, Price: 5200, Stock: 40},
			}},
		},
	},
	{
		name:        "Laminate Flooring",
		description: "Durable, budget friendly wood-look laminates",
		subs: []seedSubCategory{
			{name: "AC4 Laminate", products: []catalog.ProductCreateRequest{
				{SKU: "LM-AC4-WAL-8", Name: "Walnut AC4 Laminate", Material: "HDF", Finish: "Embossed", Thickness: "8mm", Unit: "box", Coverage: 24, Price: 1450, Stock: 300},
			}},
		},
	},
	{
		name:        "Vinyl Flooring",
		description: "Waterproof SPC and LVT flooring",
		subs: []seedSubCategory{
			{name: "SPC Click", products: []catalog.ProductCreateRequest{
				{SKU: "VN-SPC-GRY-5", Name: "Stone Grey SPC Click", Material: "SPC", Finish: "Matte", Thickness: "5mm", Unit: "box", Coverage: 22, Price: 1850, Stock: 220},
			}},
		},
	},
	{
		name:        "Accessories",
		description: "Skirting, underlay and trims",
		subs: []seedSubCategory{
			{name: "Skirting", products: []catalog.ProductCreateRequest{
				{SKU: "AC-SKT-OAK-80", Name: "Oak Veneer Skirting 80mm", Material: "MDF", Finish: "Veneer", Unit: "piece", Coverage: 0, Price: 650, Stock: 500},
			}},
			{name: "Underlay", products: []catalog.ProductCreateRequest{
				{SKU: "AC-UND-3", Name: "Acoustic Foam Underlay 3mm", Material: "PE foam", Thickness: "3mm", Unit: "roll", Coverage: 108, Price: 420, Stock: 150},
			}},
		},
	},
}

// SeedInitialData creates the admin account and, on an empty catalog, a
// sample flooring catalog. Safe to run on every start.
func (m *Migration) SeedInitialData(ctx context.Context, cfg *config.Config) error {
	users := user.NewService(m.db, cfg, m.log)
	if _, err := users.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword, "Store Admin"); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	var count int64
	if err := m.db.WithContext(ctx).Model(&catalog.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		m.log.Debug("catalog already populated, skipping sample data")
		return nil
	}

	categories := catalog.NewCategoryService(m.db, cfg)
	products := catalog.NewService(m.db, cfg)
	created := 0
	for i, sc := range sampleCatalog {
		cat, err := categories.CreateCategory(ctx, &catalog.CategoryCreateRequest{
			Name:        sc.name,
			Description: sc.description,
			SortOrder:   i + 1,
		})
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", sc.name, err)
		}
		for _, ss := range sc.subs {
			sub, err := categories.CreateSubCategory(ctx, &catalog.SubCategoryCreateRequest{
				CategoryID: cat.ID,
				Name:       ss.name,
			})
			if err != nil {
				return fmt.Errorf("failed to seed subcategory %q: %w", ss.name, err)
			}
			for _, p := range ss.products {
				p.SubCategoryID = sub.ID
				if _, err := products.CreateProduct(ctx, &p); err != nil {
					return fmt.Errorf("failed to seed product %s: %w", p.SKU, err)
				}
				created++
			}
		}
	}

	m.log.WithField("products", created).Info("sample catalog seeded")
	return nil
}
