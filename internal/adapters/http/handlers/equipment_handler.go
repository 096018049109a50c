package handlers

import (
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/core/services"
	"school-equiplend/internal/pkg/pagination"
	"school-equiplend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// EquipmentHandler handles the equipment catalog endpoints
type EquipmentHandler struct {
	equipmentService *services.EquipmentService
	log              *zap.Logger
}

// NewEquipmentHandler creates a new equipment handler
func NewEquipmentHandler(equipmentService *services.EquipmentService, log *zap.Logger) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentService: equipmentService,
		log:              log,
	}
}

// Create adds an item to the catalog
// @Summary Create equipment
// @Description condition defaults to Good, quantity to 1 and availability to true
// @Tags Equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "name, category, condition, quantity, availability"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	var fields services.EquipmentFields
	if err := c.BodyParser(&fields); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.equipmentService.Create(c.UserContext(), fields)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Created(c, "Equipment created successfully", item)
}

// List searches the catalog
// @Summary List equipment
// @Description Paged catalog ordered by name
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param category query string false "Exact category"
// @Param availability query string false "true or false"
// @Param search query string false "Case-insensitive match on name or category"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	input := services.SearchEquipmentInput{
		Category:     c.Query("category"),
		Availability: c.Query("availability"),
		Search:       c.Query("search"),
	}

	page, err := h.equipmentService.Search(c.UserContext(), input, pagination.GetParams(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Equipment retrieved successfully", page)
}

// Categories lists the distinct categories
// @Summary List equipment categories
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /equipment/categories [get]
func (h *EquipmentHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.equipmentService.Categories(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Categories retrieved successfully", categories)
}

// Update applies a partial update to an item
// @Summary Update equipment
// @Description Only name, category, condition, quantity and availability are applied
// @Tags Equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Equipment ID"
// @Param body body object true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, domain.ErrInvalidEquipmentID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	var fields services.EquipmentFields
	if err := c.BodyParser(&fields); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.equipmentService.Update(c.UserContext(), id, fields)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Equipment updated successfully", item)
}

// Delete removes an item that has never been borrowed
// @Summary Delete equipment
// @Description Refused while any borrow request references the item
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, domain.ErrInvalidEquipmentID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	if err := h.equipmentService.Delete(c.UserContext(), id); err != nil {
		return writeError(c, h.log, err)
	}

	return response.Success(c, "Equipment deleted successfully", nil)
}
