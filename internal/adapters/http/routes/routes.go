package routes

import (
	"time"

	"tikalinvest/internal/adapters/http/handlers"
	"tikalinvest/internal/adapters/http/middleware"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/config"
	"tikalinvest/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// marketCacheAge is how long public market snapshots may be cached. Prices
// tick once a minute.
const marketCacheAge = 15 * time.Second

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Stock       *handlers.StockHandler
	Transaction *handlers.TransactionHandler
	Portfolio   *handlers.PortfolioHandler
	Wallet      *handlers.WalletHandler
	Report      *handlers.ReportHandler
	Dashboard   *handlers.DashboardHandler
}

// NewHandlers wires repositories, services and handlers
func NewHandlers(db *gorm.DB, cfg *config.Config) *Handlers {
	repos := repositories.New(db)

	authService := services.NewAuthService(repos, cfg)
	userService := services.NewUserService(repos, cfg)
	marketService := services.NewMarketService(repos)
	portfolioService := services.NewPortfolioService(repos)
	tradeService := services.NewTradeService(repos, cfg)
	walletService := services.NewWalletService(repos, cfg, tradeService)
	reportService := services.NewReportService(repos, portfolioService)
	dashboardService := services.NewDashboardService(db, repos, portfolioService)

	return &Handlers{
		Health:      handlers.NewHealthHandler(repos, cfg),
		Auth:        handlers.NewAuthHandler(authService, userService, cfg),
		User:        handlers.NewUserHandler(userService),
		Stock:       handlers.NewStockHandler(marketService),
		Transaction: handlers.NewTransactionHandler(tradeService),
		Portfolio:   handlers.NewPortfolioHandler(portfolioService),
		Wallet:      handlers.NewWalletHandler(walletService),
		Report:      handlers.NewReportHandler(reportService),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	h := NewHandlers(db, cfg)

	// Health check & root routes
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, h, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h *Handlers, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)

	router.Get("/", h.Health.APIInfo)
	router.Get("/fees", h.Health.Fees)

	setupAuthRoutes(router.Group("/auth"), h.Auth, auth)

	// Public market data; admins also see delisted stocks
	setupStockRoutes(router.Group("/stocks", middleware.OptionalAuth(cfg)), h.Stock)

	// Everything below requires a logged-in user
	protected := []fiber.Handler{auth, middleware.NoCacheHeaders()}

	users := router.Group("/users/me", protected...)
	users.Get("/", h.User.GetProfile)
	users.Put("/", h.User.UpdateProfile)
	users.Put("/password", h.User.ChangePassword)
	users.Get("/referrals", h.User.Referrals)

	watchlist := router.Group("/watchlist", protected...)
	watchlist.Get("/", h.Stock.Watchlist)
	watchlist.Post("/toggle", h.Stock.ToggleWatchlist)

	transactions := router.Group("/transactions", protected...)
	transactions.Get("/", h.Transaction.List)
	transactions.Post("/", h.Transaction.Create)
	transactions.Get("/stats", h.Transaction.Stats)
	transactions.Get("/:id", h.Transaction.Get)

	portfolio := router.Group("/portfolio", protected...)
	portfolio.Get("/", h.Portfolio.Positions)
	portfolio.Get("/summary", h.Portfolio.Summary)

	wallet := router.Group("/wallet", protected...)
	wallet.Get("/", h.Wallet.Overview)
	wallet.Post("/deposit", h.Wallet.Deposit)
	wallet.Post("/withdrawal", h.Wallet.Withdraw)

	reports := router.Group("/reports", protected...)
	reports.Get("/", h.Report.List)
	reports.Post("/", h.Report.Request)
	reports.Get("/:id", h.Report.Get)

	dashboard := router.Group("/dashboard", protected...)
	dashboard.Get("/stats", h.Dashboard.GetUserStats)

	admin := router.Group("/admin", append(protected, middleware.AdminOnly())...)
	setupAdminRoutes(admin, h)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)
	router.Post("/forgot-password", middleware.StrictRateLimiter(), handler.ForgotPassword)
	router.Post("/reset-password", middleware.StrictRateLimiter(), handler.ResetPassword)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

// setupStockRoutes configures market data routes
func setupStockRoutes(router fiber.Router, handler *handlers.StockHandler) {
	cache := middleware.CacheControl(marketCacheAge)

	router.Get("/", handler.ListStocks)
	router.Get("/trending", cache, handler.Trending)
	router.Get("/gainers", cache, handler.Gainers)
	router.Get("/losers", cache, handler.Losers)
	router.Get("/:id", handler.GetStock)
	router.Get("/:id/history", cache, handler.History)
}

// setupAdminRoutes configures admin-only routes
func setupAdminRoutes(router fiber.Router, h *Handlers) {
	router.Get("/dashboard", h.Dashboard.GetAdminDashboard)

	users := router.Group("/users")
	users.Get("/", h.User.ListUsers)
	users.Get("/:id", h.User.GetUser)
	users.Post("/:id/approve", h.User.Approve)
	users.Post("/:id/suspend", h.User.Suspend)
	users.Post("/:id/activate", h.User.Activate)

	stocks := router.Group("/stocks")
	stocks.Get("/", h.Stock.AdminListStocks)
	stocks.Post("/", h.Stock.CreateStock)
	stocks.Patch("/:id", h.Stock.UpdateStock)
	stocks.Delete("/:id", h.Stock.DeleteStock)
	stocks.Post("/:id/toggle-active", h.Stock.ToggleActive)

	transactions := router.Group("/transactions")
	transactions.Get("/", h.Transaction.AdminList)
	transactions.Put("/:id/status", h.Transaction.SetStatus)
}
