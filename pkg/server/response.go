package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/devicelab-dev/element-locator/pkg/core"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

// errorBody is the JSON body of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch core.CategoryOf(err) {
	case core.ErrCategoryInput:
		return fiber.StatusBadRequest
	case core.ErrCategoryNotFound:
		return fiber.StatusNotFound
	case core.ErrCategoryDevice:
		if errors.Is(err, core.ErrNoDevice) {
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError is the app-wide fiber error handler.
func handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		body.Code = execErr.Code
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("%s %s [%v]: %v", c.Method(), c.Path(), c.Locals(requestIDKey), err)
	} else {
		logger.Info("%s %s [%v]: %d %v", c.Method(), c.Path(), c.Locals(requestIDKey), status, err)
	}

	return c.Status(status).JSON(body)
}
