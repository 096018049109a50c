package handlers

import (
	"errors"
	"strconv"

	"school-equiplend/internal/adapters/http/middleware"
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeError maps a domain error category onto an HTTP status. Anything
// uncategorised is logged and answered with a generic 500.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, err.Error())
	}

	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return response.InternalServerError(c, "Internal Server Error")
}

// currentUserID returns the authenticated user id set by the auth middleware
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(middleware.LocalUserID).(uint)
	return id, ok && id > 0
}

// currentRole returns the authenticated role, or empty for anonymous callers
func currentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(middleware.LocalRole).(string)
	return role
}

// paramID parses the :id route parameter, answering invalid with errInvalid
func paramID(c *fiber.Ctx, errInvalid error) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalid
	}
	return uint(id), nil
}
