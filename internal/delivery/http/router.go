package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "pulsetrade/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler       *AuthHandler
	AdminHandler      *AdminHandler
	OrderHandler      *OrderHandler
	CurrencyHandler   *CurrencyHandler
	WithdrawalHandler *WithdrawalHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging for high-frequency polling endpoints to reduce noise
			path := c.Request().URL.Path
			if path == "/health" || path == "/api/currencies" {
				return true
			}
			return false
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "pulsetrade-api",
		})
	})

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
	}

	// Public market data
	api.GET("/currencies", config.CurrencyHandler.GetCurrencies)
	api.GET("/currencies/:symbol", config.CurrencyHandler.GetCurrency)

	// User routes (protected with AuthMiddleware)
	user := api.Group("/user", custommiddleware.AuthMiddleware)
	{
		user.GET("/me", config.AuthHandler.Me)
	}

	// Trading routes (protected with AuthMiddleware)
	orders := api.Group("/orders", custommiddleware.AuthMiddleware)
	{
		orders.POST("", config.OrderHandler.PlaceOrder)
		orders.GET("", config.OrderHandler.GetMyOrders)
		orders.GET("/:id", config.OrderHandler.GetOrder)
	}

	withdrawals := api.Group("/withdrawals", custommiddleware.AuthMiddleware)
	{
		withdrawals.POST("", config.WithdrawalHandler.Create)
		withdrawals.GET("", config.WithdrawalHandler.GetMine)
	}

	// Admin auth (public)
	adminAuth := api.Group("/admin/auth")
	{
		adminAuth.POST("/register", config.AdminHandler.RegisterSuperAdmin)
		adminAuth.POST("/login", config.AdminHandler.Login)
	}

	// Admin routes (protected with Auth + Admin middleware)
	admin := api.Group("/admin", custommiddleware.AuthMiddleware, custommiddleware.AdminMiddleware)
	{
		admin.GET("/users", config.AdminHandler.GetUsers)
		admin.POST("/users/balance/add", config.AdminHandler.AddBalance)
		admin.POST("/users/balance/deduct", config.AdminHandler.DeductBalance)
		admin.POST("/users/balance/freeze", config.AdminHandler.SetBalanceFrozen)
		admin.POST("/users/predisposition", config.AdminHandler.SetPredisposition)

		admin.GET("/orders", config.OrderHandler.GetAllOrders)
		admin.GET("/orders/stuck", config.OrderHandler.GetStuckOrders)

		admin.GET("/withdrawals", config.WithdrawalHandler.GetAll)
		admin.POST("/withdrawals/review", config.WithdrawalHandler.Review)

		admin.PUT("/currencies/:symbol/price", config.CurrencyHandler.ManualUpdate)
	}

	// Superadmin-only routes
	superadmin := api.Group("/admin/subadmins", custommiddleware.AuthMiddleware, custommiddleware.SuperAdminMiddleware)
	{
		superadmin.POST("", config.AdminHandler.RegisterSubAdmin)
		superadmin.GET("", config.AdminHandler.GetSubAdmins)
		superadmin.DELETE("/:id", config.AdminHandler.DeleteSubAdmin)
	}
}
