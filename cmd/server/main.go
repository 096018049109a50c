package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"school-equiplend/internal/adapters/cache"
	"school-equiplend/internal/adapters/http/middleware"
	"school-equiplend/internal/adapters/http/routes"
	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/config"
	"school-equiplend/internal/core/services"
	"school-equiplend/internal/pkg/logger"
	"school-equiplend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "school-equiplend/docs" // Swagger docs
)

// @title School Equipment Lending API
// @version 1.0
// @description Borrow requests, approvals and inventory for shared school equipment.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.Log.Level, Dev: cfg.IsDev()})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !cfg.EnvFileLoaded {
		zlog.Info("no .env file found, using environment variables")
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := models.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to auto migrate", zap.Error(err))
	}
	zlog.Info("database migration completed")

	if err := config.NewSeeder(db, cfg.Seed, zlog).Run(); err != nil {
		zlog.Warn("seeding failed", zap.Error(err))
	}
	if cfg.Seed.DemoCatalog {
		if err := config.SeedCatalog(db, zlog); err != nil {
			zlog.Warn("failed to seed demo catalog", zap.Error(err))
		}
	}

	// Category cache (optional)
	var categoryCache services.CategoryCache = cache.NoopCategoryCache{}
	var redisCache *cache.RedisCategoryCache
	if cfg.Redis.URL != "" {
		redisCache, err = cache.NewRedisCategoryCache(cfg.Redis.URL, cfg.Redis.CategoriesTTL)
		if err != nil {
			zlog.Warn("redis unavailable, category cache disabled", zap.Error(err))
		} else {
			categoryCache = redisCache
			zlog.Info("category cache enabled", zap.Duration("ttl", cfg.Redis.CategoriesTTL))
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "School Equipment Lending API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg, m)

	svc := routes.Setup(app, routes.Deps{
		DB:       db,
		Cfg:      cfg,
		Log:      zlog,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Cache:    categoryCache,
	})

	// Overdue digest job (disabled when OVERDUE_CRON is empty)
	var job *services.OverdueJob
	if cfg.Jobs.OverdueCron != "" {
		job = services.NewOverdueJob(svc.Reports, m, zlog)
		if err := job.Start(cfg.Jobs.OverdueCron); err != nil {
			zlog.Fatal("invalid OVERDUE_CRON", zap.String("spec", cfg.Jobs.OverdueCron), zap.Error(err))
		}
	}

	go gracefulShutdown(app, zlog)

	zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Error("server stopped with error", zap.Error(err))
	}

	if job != nil {
		job.Stop()
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if err := config.CloseDatabase(); err != nil {
		zlog.Warn("failed to close database", zap.Error(err))
	}
	zlog.Info("server stopped gracefully")
}

// gracefulShutdown stops the listener on SIGINT or SIGTERM
func gracefulShutdown(app *fiber.App, zlog *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}
