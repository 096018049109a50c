package routes

import (
	"time"

	"school-equiplend/internal/adapters/cache"
	"school-equiplend/internal/adapters/http/handlers"
	"school-equiplend/internal/adapters/http/middleware"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/config"
	"school-equiplend/internal/core/services"
	"school-equiplend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the shared resources the routes are built from
type Deps struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Cache defaults to no caching when nil
	Cache services.CategoryCache
	// Clock defaults to the UTC wall clock when nil
	Clock services.Clock
}

// Services are the services built by Setup, exposed for background jobs
type Services struct {
	Auth      *services.AuthService
	Equipment *services.EquipmentService
	Requests  *services.RequestService
	Reports   *services.ReportService
	Dashboard *services.DashboardService
}

// Setup configures all routes for the application
func Setup(app *fiber.App, d Deps) *Services {
	categoryCache := d.Cache
	if categoryCache == nil {
		categoryCache = cache.NoopCategoryCache{}
	}
	clock := d.Clock
	if clock == nil {
		clock = services.UTCClock
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(d.DB)
	equipmentRepo := repositories.NewEquipmentRepository(d.DB)
	requestRepo := repositories.NewBorrowRequestRepository(d.DB)
	reportRepo := repositories.NewReportRepository(d.DB)

	// Initialize services
	svc := &Services{
		Auth:      services.NewAuthService(userRepo, d.Cfg, d.Log),
		Equipment: services.NewEquipmentService(equipmentRepo, requestRepo, categoryCache, d.Log),
		Requests:  services.NewRequestService(requestRepo, userRepo, d.Metrics, d.Log, services.WithClock(clock)),
		Reports:   services.NewReportService(reportRepo, requestRepo, d.Log, clock),
		Dashboard: services.NewDashboardService(reportRepo, requestRepo, d.Log, clock),
	}

	// Initialize handlers
	var pinger handlers.Pinger
	if p, ok := categoryCache.(handlers.Pinger); ok {
		pinger = p
	}
	healthHandler := handlers.NewHealthHandler(d.DB, d.Cfg, pinger)
	authHandler := handlers.NewAuthHandler(svc.Auth, d.Cfg, d.Log)
	equipmentHandler := handlers.NewEquipmentHandler(svc.Equipment, d.Log)
	requestHandler := handlers.NewRequestHandler(svc.Requests, svc.Reports, d.Log)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard, d.Log)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, d.Cfg)

	equipmentRoutes := apiV1.Group("/equipment")
	equipmentRoutes.Use(middleware.AuthMiddleware(d.Cfg))
	setupEquipmentRoutes(equipmentRoutes, equipmentHandler)

	requestRoutes := apiV1.Group("/requests")
	requestRoutes.Use(middleware.AuthMiddleware(d.Cfg), middleware.NoCacheHeaders())
	setupRequestRoutes(requestRoutes, requestHandler)

	apiV1.Get("/dashboard", middleware.AuthMiddleware(d.Cfg), middleware.NoCacheHeaders(), dashboardHandler.GetMyDashboard)

	return svc
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes; an admin token on signup unlocks privileged roles
	router.Post("/signup", middleware.AuthRateLimiter(cfg), middleware.OptionalAuth(cfg), handler.Signup)
	router.Post("/login", middleware.AuthRateLimiter(cfg), handler.Login)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupEquipmentRoutes configures catalog routes (authenticated)
func setupEquipmentRoutes(router fiber.Router, handler *handlers.EquipmentHandler) {
	router.Get("/", handler.List)
	router.Get("/categories", middleware.PrivateCacheHeaders(time.Minute), handler.Categories)

	// Admin only
	router.Post("/", middleware.AdminOnly(), handler.Create)
	router.Put("/:id", middleware.AdminOnly(), handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

// setupRequestRoutes configures borrow request routes (authenticated)
func setupRequestRoutes(router fiber.Router, handler *handlers.RequestHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Put("/:id/return", handler.Return)

	// Staff/Admin
	router.Get("/overdue", middleware.StaffOrAdmin(), handler.Overdue)
	router.Put("/:id/status", middleware.StaffOrAdmin(), handler.SetStatus)

	// Admin only
	router.Get("/analytics", middleware.AdminOnly(), handler.Analytics)
}
