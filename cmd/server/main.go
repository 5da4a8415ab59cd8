// cmd/server/main.go
// This is the entry point for the league scoring API server.
// The cmd/ folder holds executable binaries; internal/ holds the packages they are built from.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors lets the web app call the API from another origin
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration) to stdout
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/trentd187/league-scoring/internal/config"
	"github.com/trentd187/league-scoring/internal/database"
	"github.com/trentd187/league-scoring/internal/handlers"
	"github.com/trentd187/league-scoring/internal/league"
	"github.com/trentd187/league-scoring/internal/metrics"
	"github.com/trentd187/league-scoring/internal/notify"
	"github.com/trentd187/league-scoring/internal/store"
)

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg := config.Load()
	log := cfg.NewLogger()
	slog.SetDefault(log)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Bring the schema up to date before serving. SQLite databases are migrated by
	// Connect itself.
	if err := database.RunMigrations(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// The Hub fans lock announcements out to every connected SSE client.
	// "go hub.Run(ctx)" runs its event loop in the background until shutdown.
	hub := notify.NewHub()
	hub.OnChange = m.Subscribers
	go hub.Run(ctx)

	svc := league.New(league.Options{
		Store:     store.NewGormStore(db),
		Notifier:  notify.Multi{hub, notify.LogNotifier{Logger: log}},
		Logger:    log,
		Metrics:   m,
		AppOrigin: cfg.AppOrigin,
	})

	app := fiber.New(fiber.Config{
		AppName: "League Scoring API",
	})

	// --- Global middleware ---
	app.Use(logger.New())
	// In production only the app's own origin may call the API.
	corsCfg := cors.Config{}
	if cfg.IsProduction() {
		corsCfg.AllowOrigins = cfg.AppOrigin
		corsCfg.AllowCredentials = true
	}
	app.Use(cors.New(corsCfg))

	handlers.Register(app, handlers.Deps{
		Config:  cfg,
		DB:      db,
		Service: svc,
		Hub:     hub,
		Metrics: m,
		Logger:  log,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("starting server", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
