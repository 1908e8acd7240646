package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"

	"github.com/focusarena/focusarena/internal/domain/shared"
)

// Protected returns the JWT middleware guarding authenticated routes.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid access token",
			})
		},
	})
}

// ErrorHandler maps domain errors onto HTTP statuses. Anything that is
// not a recognized domain error is a 500 with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	status := fiber.StatusInternalServerError
	message := "internal server error"

	var domainErr *shared.DomainError
	hasDomain := errors.As(err, &domainErr)

	switch {
	// Starting while a session is open is reported as a bad request,
	// not a 409, matching the public API contract.
	case errors.Is(err, shared.ErrActiveSessionExists):
		status = fiber.StatusBadRequest
	case shared.IsValidation(err):
		status = fiber.StatusBadRequest
	case shared.IsNotFound(err):
		status = fiber.StatusNotFound
	case shared.IsConflict(err):
		status = fiber.StatusConflict
	case errors.Is(err, shared.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		status = fiber.StatusForbidden
	case shared.IsUnavailable(err):
		status = fiber.StatusServiceUnavailable
	}

	if hasDomain && status != fiber.StatusInternalServerError {
		message = domainErr.Message
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}
