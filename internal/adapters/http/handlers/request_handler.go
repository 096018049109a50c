package handlers

import (
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/core/services"
	"school-equiplend/internal/pkg/pagination"
	"school-equiplend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestHandler handles borrow request endpoints
type RequestHandler struct {
	requestService *services.RequestService
	reportService  *services.ReportService
	log            *zap.Logger
}

// NewRequestHandler creates a new borrow request handler
func NewRequestHandler(requestService *services.RequestService, reportService *services.ReportService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		reportService:  reportService,
		log:            log,
	}
}

// Create submits a borrow request for the current user
// @Summary Create borrow request
// @Description Admitted only while the item is available and a unit is free for every day of the window
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateRequestInput true "Borrow request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateRequestInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	created, err := h.requestService.CreateRequest(c.UserContext(), userID, &req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Created(c, "Borrow request created successfully", created)
}

// List returns the request ledger
// @Summary List borrow requests
// @Description Newest first, with equipment and user summaries
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, APPROVED, REJECTED or RETURNED"
// @Param userId query int false "Requesting user"
// @Param equipmentId query int false "Requested equipment"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	input := services.ListRequestsInput{
		Status:      c.Query("status"),
		UserID:      c.Query("userId"),
		EquipmentID: c.Query("equipmentId"),
	}

	page, err := h.requestService.List(c.UserContext(), input, pagination.GetParams(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Requests retrieved successfully", page)
}

// Overdue lists approved requests past their due date
// @Summary List overdue requests
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/overdue [get]
func (h *RequestHandler) Overdue(c *fiber.Ctx) error {
	rows, err := h.reportService.Overdue(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Overdue requests retrieved successfully", rows)
}

// Analytics summarises usage
// @Summary Usage analytics
// @Description The range applies to request creation dates when both bounds are given
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/analytics [get]
func (h *RequestHandler) Analytics(c *fiber.Ctx) error {
	result, err := h.reportService.Analytics(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Analytics retrieved successfully", result)
}

// SetStatus records a staff decision
// @Summary Update request status
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body services.SetStatusInput true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /requests/{id}/status [put]
func (h *RequestHandler) SetStatus(c *fiber.Ctx) error {
	callerID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := paramID(c, domain.ErrInvalidRequestID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	var req services.SetStatusInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updated, err := h.requestService.SetStatus(c.UserContext(), id, callerID, &req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Request status updated successfully", updated)
}

// Return marks borrowed equipment as returned
// @Summary Return equipment
// @Description The body is optional
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body services.ReturnInput false "Return notes"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /requests/{id}/return [put]
func (h *RequestHandler) Return(c *fiber.Ctx) error {
	callerID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := paramID(c, domain.ErrInvalidRequestID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	var req services.ReturnInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	updated, err := h.requestService.ReturnEquipment(c.UserContext(), id, callerID, &req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Equipment returned successfully", updated)
}
