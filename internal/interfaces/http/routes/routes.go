// internal/interfaces/http/routes/routes.go
package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/analytics"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/recentview"
	"github.com/your-org/storefront-backend/internal/domain/settlement"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// Services bundles the domain services the routes dispatch to
type Services struct {
	Users       *user.Service
	Admin       *user.AdminService
	Tenants     *tenant.Service
	Categories  *product.CategoryService
	Products    *product.Service
	Carts       *cart.Service
	Wishlists   *wishlist.Service
	RecentViews *recentview.Service
	Orders      *order.Service
	Settlements *settlement.Service
	Analytics   *analytics.Service
}

// NewServices wires every domain service. Guest carts live in kv; everything else in db.
func NewServices(ctx context.Context, db *gorm.DB, kv cart.KeyValueStore, cfg *config.Config, logger logrus.FieldLogger) *Services {
	tenants := tenant.NewService(db, logger)
	categories := product.NewCategoryService(db, product.NewDescendantResolver(ctx, db, cfg.Catalog, logger), logger)
	products := product.NewService(db, cfg, categories, logger)
	carts := cart.NewService(cart.NewMemberStore(db), cart.NewGuestStore(kv), products, logger)
	orders := order.NewService(db, cfg, carts, products, logger)

	return &Services{
		Users:       user.NewService(db, cfg, logger),
		Admin:       user.NewAdminService(db, cfg, tenants, logger),
		Tenants:     tenants,
		Categories:  categories,
		Products:    products,
		Carts:       carts,
		Wishlists:   wishlist.NewService(db, products, carts, logger),
		RecentViews: recentview.NewService(db, products, cfg.Storefront.RecentViewLimit, logger),
		Orders:      orders,
		Settlements: settlement.NewService(orders, tenants, pdf.NewService(cfg), logger),
		Analytics:   analytics.NewService(db, tenants, logger),
	}
}

// SetupRoutes registers every API route under rg
func SetupRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config, logger logrus.FieldLogger) {
	SetupAuthRoutes(rg, svc, cfg, logger)
	SetupCatalogRoutes(rg, svc, cfg, logger)
	SetupShoppingRoutes(rg, svc, cfg)
	SetupOrderRoutes(rg, svc, cfg)
	SetupMerchantRoutes(rg, svc, cfg, logger)
	SetupHQRoutes(rg, svc, cfg, logger)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config, logger logrus.FieldLogger) {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Carts, cfg, logger)

	authGroup := rg.Group("/auth")
	{
		// Public auth endpoints
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)

		// Protected auth endpoints
		protected := authGroup.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
		}
	}
}

// SetupCatalogRoutes sets up the public product and category routes
func SetupCatalogRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config, logger logrus.FieldLogger) {
	productHandler := handlers.NewProductHandler(svc.Products, svc.RecentViews, svc.Tenants, logger)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Products)

	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(cfg)) // Optional auth for view history
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)
		categories.GET("/:id/products", categoryHandler.GetCategoryProducts)
	}
}

// SetupShoppingRoutes sets up cart, wishlist and recently viewed routes
func SetupShoppingRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(svc.Carts, cfg)
	wishlistHandler := handlers.NewWishlistHandler(svc.Wishlists)
	recentHandler := handlers.NewRecentViewHandler(svc.RecentViews)

	// Cart routes work with guest sessions or authenticated users
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
		cartGroup.GET("/count", cartHandler.GetCartCount)
		cartGroup.PUT("/select", cartHandler.SelectAllCartItems)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.POST("/items/remove", cartHandler.RemoveCartItems)
		cartGroup.PUT("/items/:key", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:key", cartHandler.RemoveFromCart)
		cartGroup.POST("/items/:key/increment", cartHandler.IncrementCartItem)
		cartGroup.POST("/items/:key/decrement", cartHandler.DecrementCartItem)
		cartGroup.PUT("/items/:key/select", cartHandler.SelectCartItem)
	}

	wishlistGroup := rg.Group("/wishlist")
	wishlistGroup.Use(middleware.AuthMiddleware(cfg))
	{
		wishlistGroup.GET("", wishlistHandler.GetWishlist)
		wishlistGroup.GET("/count", wishlistHandler.GetWishlistCount)
		wishlistGroup.POST("/items", wishlistHandler.AddToWishlist)
		wishlistGroup.GET("/items/:product_id", wishlistHandler.CheckItemInWishlist)
		wishlistGroup.DELETE("/items/:product_id", wishlistHandler.RemoveFromWishlist)
		wishlistGroup.POST("/items/:product_id/toggle", wishlistHandler.ToggleWishlistItem)
		wishlistGroup.POST("/items/:product_id/move-to-cart", wishlistHandler.MoveToCart)
	}

	recent := rg.Group("/recent-views")
	recent.Use(middleware.AuthMiddleware(cfg))
	{
		recent.GET("", recentHandler.GetRecentViews)
		recent.DELETE("", recentHandler.ClearRecentViews)
	}
}

// SetupOrderRoutes sets up the buyer's checkout and order routes
func SetupOrderRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(svc.Orders)

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(cfg), middleware.RequireRoles(auth.RoleCustomer))
	{
		checkout.POST("", orderHandler.Checkout)
	}

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg), middleware.RequireRoles(auth.RoleCustomer))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}

// SetupMerchantRoutes sets up the merchant back office. Every handler scopes to the
// caller's tenant.
func SetupMerchantRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config, logger logrus.FieldLogger) {
	merchant := rg.Group("/merchant")
	merchant.Use(middleware.AuthMiddleware(cfg), middleware.RequireRoles(auth.RoleMerchant))
	setupBackOffice(merchant, svc, logger)
}

// SetupHQRoutes sets up the HQ back office: everything merchants have across all tenants
// plus tenant, category and account management
func SetupHQRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config, logger logrus.FieldLogger) {
	hq := rg.Group("/hq")
	hq.Use(middleware.AuthMiddleware(cfg), middleware.RequireRoles(auth.RoleHQ))
	setupBackOffice(hq, svc, logger)

	tenantHandler := handlers.NewTenantHandler(svc.Tenants)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Products)
	userHandler := handlers.NewUserAdminHandler(svc.Admin)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)

	tenants := hq.Group("/tenants")
	{
		tenants.GET("", tenantHandler.GetTenants)
		tenants.POST("", tenantHandler.CreateTenant)
		tenants.GET("/:id", tenantHandler.GetTenant)
		tenants.PUT("/:id", tenantHandler.UpdateTenant)
		tenants.PUT("/:id/status", tenantHandler.UpdateTenantStatus)
	}

	categories := hq.Group("/categories")
	{
		categories.POST("", categoryHandler.CreateCategory)
		categories.PUT("/:id", categoryHandler.UpdateCategory)
		categories.DELETE("/:id", categoryHandler.DeleteCategory)
	}

	users := hq.Group("/users")
	{
		users.GET("", userHandler.GetUsers)
		users.POST("", userHandler.CreateAccount)
		users.PUT("/:id/status", userHandler.UpdateUserStatus)
	}

	hq.GET("/analytics/customers", analyticsHandler.GetCustomers)
}

// setupBackOffice registers the routes merchants and HQ share
func setupBackOffice(rg *gin.RouterGroup, svc *Services, logger logrus.FieldLogger) {
	productHandler := handlers.NewProductHandler(svc.Products, svc.RecentViews, svc.Tenants, logger)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	settlementHandler := handlers.NewSettlementHandler(svc.Settlements, svc.Tenants)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ManageProducts)
		products.POST("", productHandler.CreateProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
	}

	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.ManageOrders)
		orders.GET("/stats", orderHandler.GetOrderStats)
		orders.GET("/export", orderHandler.ExportOrders)
		orders.GET("/:id", orderHandler.ManageOrder)
		orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
	}

	settlements := rg.Group("/settlements")
	{
		settlements.GET("", settlementHandler.GetSettlements)
		settlements.GET("/summary", settlementHandler.GetSettlementSummary)
		settlements.GET("/export", settlementHandler.ExportSettlements)
		settlements.GET("/statement", settlementHandler.DownloadStatement)
	}

	rg.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
}
