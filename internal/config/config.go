// Package config handles loading runtime configuration for the league scoring API.
// Configuration values (like the database URL and API port) are read from environment variables
// rather than being hardcoded. This follows the "12-factor app" methodology, which recommends
// storing config in the environment so the same binary can run in dev, staging, and production
// without changing any code, just swap the environment variables.
package config

import (
	"log/slog"
	"os"
	"strings"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// This is convenient in development: create a .env file with your secrets and they're
	// automatically available as environment variables. In production, real env vars are used instead.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port          string     // The TCP port the HTTP server will listen on (e.g., "8080")
	DatabaseURL   string     // PostgreSQL connection string, or sqlite://file.db for local runs
	Env           string     // The runtime environment: "development", "staging", or "production"
	AdminSecret   string     // HMAC key used to sign and verify admin JWTs
	AdminPassword string     // Password the admin logs in with to receive a token
	AppOrigin     string     // Public base URL of the app; used in notification links
	LogLevel      slog.Level // Minimum level written by the structured logger
	MigrationsDir string     // Directory holding the golang-migrate SQL files
}

// Load reads configuration from environment variables and returns a populated Config.
// It first tries to load a .env file for local development; a missing .env is fine.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"), // Required, server will fail to start without it
		Env:           getenv("ENV", "development"),
		AdminSecret:   os.Getenv("ADMIN_SECRET"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AppOrigin:     getenv("APP_ORIGIN", "http://localhost:3000"),
		LogLevel:      parseLevel(os.Getenv("LOG_LEVEL")),
		MigrationsDir: getenv("MIGRATIONS_DIR", "migrations"),
	}
}

// IsProduction reports whether the server runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getenv returns the environment variable, or fallback when it is unset or empty.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLevel maps "debug", "info", "warn" and "error" to slog levels; anything else is info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the process-wide structured logger: JSON in production, text elsewhere.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
