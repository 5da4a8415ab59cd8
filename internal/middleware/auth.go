// Package middleware contains HTTP middleware functions for the league scoring API.
// Middleware sits between the HTTP server and route handlers, it runs on every
// request that passes through it, making it the right place for cross-cutting
// concerns like authentication.
package middleware

import (
	"errors"
	"strings"
	"time"

	// fiber is the HTTP framework; fiber.Handler is the function signature for middleware
	"github.com/gofiber/fiber/v2"
	// jwt is used to sign and verify the admin's JSON Web Token
	"github.com/golang-jwt/jwt/v5"

	"github.com/trentd187/league-scoring/internal/config"
)

// CookieName is the cookie the admin token is stored in after login.
const CookieName = "league_admin"

// RoleAdmin is the only role the API knows about: admins can save and lock events.
const RoleAdmin = "admin"

// tokenTTL is how long an admin session lasts.
const tokenTTL = 12 * time.Hour

// Claims is the payload of an admin token.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT fields: Subject, ExpiresAt, IssuedAt
	Role                 string `json:"role"` // "admin"
}

// IssueToken signs a new admin token with the configured secret.
func IssueToken(cfg *config.Config, now time.Time) (string, error) {
	if cfg.AdminSecret == "" {
		return "", errors.New("ADMIN_SECRET is not set")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Role: RoleAdmin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AdminSecret))
}

// Auth returns a Fiber middleware handler that:
//  1. Reads the admin token from the "Authorization: Bearer <token>" header, or the
//     admin cookie set by the login route
//  2. Verifies its HS256 signature and expiry against cfg.AdminSecret
//  3. Stores the subject and role in the request context (c.Locals) for RequireRole
//
// This is a closure, a function that returns another function, capturing cfg
// in its scope so it's available every time a request comes in.
func Auth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if authHeader := c.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing admin token",
			})
		}
		if cfg.AdminSecret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "admin access is not configured",
			})
		}

		// Only accept HMAC-signed tokens; anything else (including "none") is rejected
		// before the key is handed out.
		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			return []byte(cfg.AdminSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token claims",
			})
		}

		// c.Locals is a key-value store scoped to this single request.
		c.Locals(LocalSubject, claims.Subject)
		c.Locals(LocalRole, claims.Role)

		// Pass control to the next middleware or route handler
		return c.Next()
	}
}
