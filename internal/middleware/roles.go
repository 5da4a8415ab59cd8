package middleware

// roles.go: gate routes on the role carried by the admin token.

import (
	"slices"

	"github.com/gofiber/fiber/v2"
)

// Keys under which Auth stores the verified token's claims in c.Locals.
const (
	LocalSubject = "userID"
	LocalRole    = "userRole"
)

// RequireRole lets a request through only when the token's role is one of roles,
// answering 403 otherwise. Mount it after Auth, which fills in LocalRole:
//
//	admin := api.Group("/admin", middleware.Auth(cfg), middleware.RequireRole(middleware.RoleAdmin))
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		if role == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		if !slices.Contains(roles, role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}
		return c.Next()
	}
}
