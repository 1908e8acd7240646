// Package handlers contains the HTTP route handlers. Handlers parse and
// validate requests, call an application service, and shape the response;
// error-to-status mapping lives in the app-level error handler.
package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

var validate = validator.New()

// authUserID extracts the authenticated user id from the JWT the auth
// middleware stored on the context. Empty on unauthenticated routes.
func authUserID(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// parseBody unmarshals and validates a JSON request body. Malformed JSON
// and failed validation both surface as 400s.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(dest); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid field: "+verrs[0].Field())
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}
