package handlers

import (
	"school-equiplend/internal/core/services"
	"school-equiplend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	log              *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log,
	}
}

// GetMyDashboard returns the dashboard for the current user's role
// @Summary My Dashboard
// @Description Catalog and request counts with the five newest requests. Students see their own requests; staff and admins also get the overdue count.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetMyDashboard(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetDashboard(c.UserContext(), userID, currentRole(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}
