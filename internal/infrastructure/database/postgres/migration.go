// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/recentview"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// seedBcryptCost keeps seeding fast; seeded accounts are for development only
const seedBcryptCost = 10

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log.WithField("component", "migration"),
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&tenant.Tenant{},
		&user.User{},

		&product.Category{},
		&product.Product{},

		&cart.CartItem{},
		&wishlist.WishlistItem{},
		&recentview.RecentView{},

		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for the hot query paths
func (m *Migration) CreateIndexes() error {
	m.log.Info("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_role_active ON users(role, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_tenant_active ON products(tenant_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Category indexes
		"CREATE INDEX IF NOT EXISTS idx_categories_parent_active ON categories(parent_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_categories_level_sort ON categories(level, sort_order)",

		// Storefront indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_created ON cart_items(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_wishlist_items_user_added ON wishlist_items(user_id, added_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_tenant_created ON orders(tenant_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("⚠️ Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.log.Infof("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	m.log.Info("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	tenants, err := m.seedTenants()
	if err != nil {
		return fmt.Errorf("failed to seed tenants: %w", err)
	}

	if err := m.seedUsers(tenants); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := m.seedProducts(tenants); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.log.Info("✅ Initial data seeded successfully")
	return nil
}

// seedCategories writes the built-in three level tree
func (m *Migration) seedCategories() error {
	m.log.Info("🏷️ Seeding categories...")

	var count int64
	if err := m.db.Model(&product.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.Info("⏭️ Categories already exist")
		return nil
	}

	categories := product.DefaultCategories()
	if err := m.db.Create(&categories).Error; err != nil {
		return err
	}

	// ids were written explicitly; move the sequence past them
	if m.db.Dialector.Name() == "postgres" {
		err := m.db.Exec("SELECT setval(pg_get_serial_sequence('categories', 'id'), (SELECT MAX(id) FROM categories))").Error
		if err != nil {
			return fmt.Errorf("failed to advance category sequence: %w", err)
		}
	}

	m.log.Infof("✅ Created %d categories", len(categories))
	return nil
}

func (m *Migration) seedTenants() ([]tenant.Tenant, error) {
	m.log.Info("🏪 Seeding tenants...")

	seeds := []tenant.Tenant{
		{Name: "Blue Harbor Goods", Slug: "blue-harbor-goods", ContactEmail: "ops@blueharbor.example.com", Status: tenant.StatusActive},
		{Name: "North Loom", Slug: "north-loom", ContactEmail: "hello@northloom.example.com", Status: tenant.StatusActive},
	}

	out := make([]tenant.Tenant, 0, len(seeds))
	for _, seed := range seeds {
		t := seed
		if err := m.db.Where("slug = ?", seed.Slug).FirstOrCreate(&t).Error; err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// seedUsers creates one account per role
func (m *Migration) seedUsers(tenants []tenant.Tenant) error {
	m.log.Info("👤 Seeding users...")

	merchantTenant := tenants[0].ID
	seeds := []struct {
		user     user.User
		password string
	}{
		{user.User{Email: "hq@example.com", FirstName: "Head", LastName: "Office", Role: user.RoleHQ}, "HqAdmin1234"},
		{user.User{Email: "merchant@example.com", FirstName: "Blue", LastName: "Harbor", Role: user.RoleMerchant, TenantID: &merchantTenant}, "Merchant1234"},
		{user.User{Email: "customer@example.com", FirstName: "Test", LastName: "Customer", Role: user.RoleCustomer}, "Customer1234"},
	}

	for _, seed := range seeds {
		var existing user.User
		if err := m.db.Where("email = ?", seed.user.Email).First(&existing).Error; err == nil {
			m.log.Infof("⏭️ User already exists: %s", seed.user.Email)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(seed.password), seedBcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		u := seed.user
		u.Password = string(hashed)
		u.IsActive = true
		if err := m.db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		m.log.Infof("✅ Created %s user: %s (password: %s)", u.Role, u.Email, seed.password)
	}

	return nil
}

func (m *Migration) seedProducts(tenants []tenant.Tenant) error {
	m.log.Info("🛍️ Seeding products...")

	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.Info("⏭️ Products already exist")
		return nil
	}

	blue, north := tenants[0].ID, tenants[1].ID
	products := []product.Product{
		{TenantID: blue, Name: "Linen Shirt", Slug: "linen-shirt", Brand: "Blue Harbor", Price: 39000, Image: "products/linen-shirt.jpg", CategoryID: 14},
		{TenantID: blue, Name: "Relaxed Jeans", Slug: "relaxed-jeans", Brand: "Blue Harbor", Price: 59000, Image: "products/relaxed-jeans.jpg", CategoryID: 12},
		{TenantID: blue, Name: "Canvas Sneakers", Slug: "canvas-sneakers", Price: 69000, CategoryID: 19},
		{TenantID: north, Name: "Wool Scarf", Slug: "wool-scarf", Brand: "North Loom", Price: 21000, Image: "https://cdn.example.com/north/wool-scarf.jpg", CategoryID: 18},
		{TenantID: north, Name: "Cotton Hoodie", Slug: "cotton-hoodie", Brand: "North Loom", Price: 45000, CategoryID: 15},
		{TenantID: north, Name: "Pleated Skirt", Slug: "pleated-skirt", Price: 38000, CategoryID: 13},
	}
	for i := range products {
		products[i].IsActive = true
	}

	if err := m.db.Create(&products).Error; err != nil {
		return err
	}

	m.log.Infof("✅ Created %d products", len(products))
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	m.log.Warn("⚠️ WARNING: Dropping all database tables...")

	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			m.log.WithError(err).Warnf("⚠️ Failed to drop table for %T", models[i])
		} else {
			m.log.Infof("🗑️ Dropped table for %T", models[i])
		}
	}

	m.log.Info("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo logs the row count of every migrated table
func (m *Migration) GetTableInfo() error {
	m.log.Info("📊 Database Tables Information:")

	totalRecords := int64(0)
	for _, model := range Models() {
		var count int64
		if err := m.db.Model(model).Count(&count).Error; err != nil {
			return err
		}
		totalRecords += count

		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(model); err != nil {
			return err
		}

		status := "✅"
		if count == 0 {
			status = "📭"
		}
		m.log.Infof("%s %-25s | %d records", status, stmt.Schema.Table, count)
	}

	m.log.Infof("📈 Total records across all tables: %d", totalRecords)
	return nil
}
