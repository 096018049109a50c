package handlers

import (
	"context"
	"time"

	"school-equiplend/internal/config"
	"school-equiplend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger is a dependency that can report its own liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db    *gorm.DB
	cfg   *config.Config
	cache Pinger
}

// NewHealthHandler creates a new health handler. cache may be nil when no
// Redis is configured.
func NewHealthHandler(db *gorm.DB, cfg *config.Config, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cfg: cfg, cache: cache}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "School Equipment Lending API v1 is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, database and cache health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{"api": "healthy", "database": "healthy"}
	healthy := true

	if err := config.PingDatabase(ctx, h.db); err != nil {
		checks["database"] = "unhealthy"
		healthy = false
	}

	// the cache is optional; a cold cache only costs a query
	if h.cache != nil {
		checks["cache"] = "healthy"
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "degraded"
		}
	}

	if !healthy {
		return response.ServiceUnavailable(c, "Service unavailable", fiber.Map{"checks": checks})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": checks,
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Returns API v1 information
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "School Equipment Lending API",
		"version": "1.0.0",
	})
}
