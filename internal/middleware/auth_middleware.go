package middleware

import (
	"strings"

	"github.com/aody34/Darusalaampharmcy/internal/repository"
	"github.com/aody34/Darusalaampharmcy/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token and sets the seller identity in
// the request context.
func RequireAuth(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": fiber.Map{"code": "UNAUTHORIZED", "message": "Missing authorization token"}})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": fiber.Map{"code": "UNAUTHORIZED", "message": "Invalid authorization format. Use: Bearer <token>"}})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": fiber.Map{"code": "UNAUTHORIZED", "message": "Invalid or expired token"}})
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil || !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": fiber.Map{"code": "UNAUTHORIZED", "message": "User not found or inactive"}})
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", claims.Name)

		return c.Next()
	}
}

// StaticSeller stamps a fixed seller identity on every request. Used by the
// embedded single-terminal deployment, which has no login flow.
func StaticSeller(sellerID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", sellerID)
		return c.Next()
	}
}
