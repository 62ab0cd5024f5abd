package handler

import (
	"github.com/aody34/Darusalaampharmcy/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Every endpoint answers with the same envelope: {success, data} on the
// happy path, {success, error:{code,message}} otherwise.

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   fiber.Map{"code": code, "message": message},
	})
}

// respondSaleError maps the engine's error taxonomy onto HTTP statuses.
func respondSaleError(c *fiber.Ctx, err error) error {
	code := service.ErrorCode(err)
	status := fiber.StatusInternalServerError
	switch code {
	case "INVALID_QUANTITY":
		status = fiber.StatusBadRequest
	case "ITEM_NOT_FOUND":
		status = fiber.StatusNotFound
	case "INSUFFICIENT_STOCK":
		status = fiber.StatusConflict
	case "TRANSIENT_FAILURE":
		status = fiber.StatusServiceUnavailable
	}
	return respondError(c, status, code, err.Error())
}

// Helpers to pull the authenticated user out of the request context (set by
// the auth middleware, or by the static-seller middleware in embedded mode).
func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system"
	}
	return userID.(string)
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
