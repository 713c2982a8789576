// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/analytics"
	"github.com/your-org/flooring-store/internal/domain/cart"
	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/domain/checkout"
	"github.com/your-org/flooring-store/internal/domain/feedback"
	"github.com/your-org/flooring-store/internal/domain/inventory"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/upload"
	"github.com/your-org/flooring-store/internal/domain/user"
	"github.com/your-org/flooring-store/internal/interfaces/http/handlers"
	"github.com/your-org/flooring-store/internal/interfaces/http/middleware"
	"github.com/your-org/flooring-store/internal/pkg/auth"
	"github.com/your-org/flooring-store/internal/pkg/pdf"
)

// Dependencies are the shared clients the API is built from
type Dependencies struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Config   *config.Config
	Log      *logrus.Logger
	Events   order.EventPublisher
	Receipts handlers.ReceiptRenderer
}

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth       *handlers.AuthHandler
	Categories *handlers.CategoryHandler
	Products   *handlers.ProductHandler
	Pricing    *handlers.PricingHandler
	Cart       *handlers.CartHandler
	Checkout   *handlers.CheckoutHandler
	Orders     *handlers.OrderHandler
	Feedback   *handlers.FeedbackHandler
	Users      *handlers.UserAdminHandler
	Analytics  *handlers.AnalyticsHandler
	Inventory  *handlers.InventoryHandler
	Uploads    *handlers.UploadHandler
}

// NewHandlers builds the services and their handlers
func NewHandlers(d Dependencies) *Handlers {
	receipts := d.Receipts
	if receipts == nil {
		receipts = pdf.NewService(d.Config)
	}

	categories := catalog.NewCategoryService(d.DB, d.Config)
	products := catalog.NewService(d.DB, d.Config)
	carts := cart.NewService(d.DB, products, d.Config, d.Log)
	orders := order.NewService(d.DB, d.Config, d.Events, d.Log)
	checkouts := checkout.NewService(d.Redis, carts, orders, products, d.Config, d.Log)

	return &Handlers{
		Auth:       handlers.NewAuthHandler(user.NewService(d.DB, d.Config, d.Log), d.Log),
		Categories: handlers.NewCategoryHandler(categories, d.Log),
		Products:   handlers.NewProductHandler(products, d.Log),
		Pricing:    handlers.NewPricingHandler(d.Log),
		Cart:       handlers.NewCartHandler(carts, d.Log),
		Checkout:   handlers.NewCheckoutHandler(checkouts, d.Log),
		Orders:     handlers.NewOrderHandler(orders, receipts, d.Log),
		Feedback:   handlers.NewFeedbackHandler(feedback.NewService(d.DB), d.Log),
		Users:      handlers.NewUserAdminHandler(user.NewAdminService(d.DB, d.Log), d.Log),
		Analytics:  handlers.NewAnalyticsHandler(analytics.NewService(d.DB), d.Log),
		Inventory:  handlers.NewInventoryHandler(inventory.NewService(d.DB, d.Log), d.Log),
		Uploads:    handlers.NewUploadHandler(upload.NewService(d.DB, d.Config.Upload, d.Log), d.Log),
	}
}

// SetupRoutes registers every /api/v1 route
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	jwtManager := auth.NewJWTManager(cfg)
	requireAuth := middleware.AuthMiddleware(jwtManager)
	optionalAuth := middleware.OptionalAuthMiddleware(jwtManager)

	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/refresh", h.Auth.RefreshToken)

		protected := authRoutes.Group("", requireAuth)
		protected.GET("/profile", h.Auth.GetProfile)
		protected.PUT("/profile", h.Auth.UpdateProfile)
	}

	// Public catalog. Admin tokens also see inactive entries.
	public := rg.Group("", optionalAuth)
	{
		public.GET("/categories", h.Categories.GetCategories)
		public.GET("/categories/:id", h.Categories.GetCategory)
		public.GET("/subcategories", h.Categories.GetSubCategories)
		public.GET("/products", h.Products.GetProducts)
		public.GET("/products/:id", h.Products.GetProduct)
	}

	pricingRoutes := rg.Group("/pricing")
	{
		pricingRoutes.GET("/policies", h.Pricing.GetPolicies)
		pricingRoutes.GET("/quote", h.Pricing.GetQuote)
	}

	cartRoutes := rg.Group("/cart", requireAuth)
	{
		cartRoutes.GET("", h.Cart.GetCart)
		cartRoutes.POST("/items", h.Cart.AddToCart)
		cartRoutes.PUT("/items/:productId", h.Cart.UpdateCartItem)
		cartRoutes.DELETE("/items/:productId", h.Cart.RemoveFromCart)
		cartRoutes.DELETE("", h.Cart.ClearCart)
	}

	checkoutRoutes := rg.Group("/checkout", requireAuth)
	{
		checkoutRoutes.POST("/sessions", h.Checkout.StartCheckout)
		checkoutRoutes.GET("/sessions/:id", h.Checkout.GetSession)
		checkoutRoutes.POST("/sessions/:id/confirm", h.Checkout.Confirm)
	}

	orderRoutes := rg.Group("/orders", requireAuth)
	{
		orderRoutes.GET("", h.Orders.GetOrders)
		orderRoutes.GET("/:id", h.Orders.GetOrder)
		orderRoutes.PUT("/:id/cancel", h.Orders.CancelOrder)
		orderRoutes.GET("/:id/receipt", h.Orders.GetReceipt)
		orderRoutes.GET("/:id/receipt/data", h.Orders.GetReceiptData)
	}

	rg.POST("/feedback", requireAuth, h.Feedback.Submit)

	admin := rg.Group("/admin", requireAuth, middleware.AdminMiddleware())
	{
		admin.POST("/categories", h.Categories.CreateCategory)
		admin.PUT("/categories/:id", h.Categories.UpdateCategory)
		admin.DELETE("/categories/:id", h.Categories.DeleteCategory)
		admin.POST("/subcategories", h.Categories.CreateSubCategory)
		admin.PUT("/subcategories/:id", h.Categories.UpdateSubCategory)
		admin.DELETE("/subcategories/:id", h.Categories.DeleteSubCategory)
		admin.POST("/products", h.Products.CreateProduct)
		admin.PUT("/products/:id", h.Products.UpdateProduct)
		admin.DELETE("/products/:id", h.Products.DeleteProduct)
		admin.POST("/products/:id/image", h.Uploads.UploadProductImage)
		admin.DELETE("/products/:id/image", h.Uploads.DeleteProductImage)
		admin.POST("/products/:id/stock", h.Inventory.RecordMovement)
		admin.GET("/products/:id/stock/movements", h.Inventory.GetMovements)
		admin.GET("/inventory/low-stock", h.Inventory.GetLowStock)

		admin.GET("/orders", h.Orders.AdminGetOrders)
		admin.GET("/orders/:id", h.Orders.AdminGetOrder)
		admin.PUT("/orders/:id/status", h.Orders.AdminUpdateStatus)

		admin.GET("/users", h.Users.GetUsers)
		admin.GET("/users/:id", h.Users.GetUser)
		admin.PUT("/users/:id/status", h.Users.UpdateUserStatus)
		admin.PUT("/users/:id/admin", h.Users.ToggleUserAdmin)

		admin.GET("/analytics/dashboard", h.Analytics.GetDashboard)
		admin.GET("/analytics/sales", h.Analytics.GetSales)

		admin.GET("/feedback", h.Feedback.AdminList)
		admin.DELETE("/feedback/:id", h.Feedback.AdminDelete)
	}
}
