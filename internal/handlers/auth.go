package handlers

// auth.go: admin login and logout.

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/league-scoring/internal/config"
	"github.com/trentd187/league-scoring/internal/middleware"
)

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
// A correct admin password gets a signed token, both in the response body (for API
// clients) and in an HTTP-only cookie (for the browser).
func Login(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		if cfg.AdminPassword == "" ||
			subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.AdminPassword)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "wrong password",
			})
		}

		now := time.Now()
		token, err := middleware.IssueToken(cfg, now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Cookie(&fiber.Cookie{
			Name:     middleware.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  now.Add(12 * time.Hour),
			HTTPOnly: true,
			Secure:   cfg.IsProduction(),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(fiber.Map{"ok": true, "token": token})
	}
}

// Logout handles POST /api/v1/auth/logout by clearing the admin cookie.
func Logout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.CookieName)
	return c.JSON(fiber.Map{"ok": true})
}
