package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	// adaptor mounts a net/http handler (the Prometheus exporter) on a Fiber route
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"

	"github.com/trentd187/league-scoring/internal/config"
	"github.com/trentd187/league-scoring/internal/league"
	"github.com/trentd187/league-scoring/internal/metrics"
	"github.com/trentd187/league-scoring/internal/middleware"
	"github.com/trentd187/league-scoring/internal/notify"
)

// Deps bundles what the routes need.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Service *league.Service
	Hub     *notify.Hub
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Register wires every route onto app.
//
// Public routes read standings and results. Everything under /api/v1/admin requires
// an admin token, issued by POST /api/v1/auth/login.
func Register(app *fiber.App, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svc := d.Service

	app.Get("/health", Health(d.DB))
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	api := app.Group("/api/v1")

	api.Post("/auth/login", Login(d.Config))
	api.Post("/auth/logout", Logout)

	// Season reads. ":id" also accepts "current".
	api.Get("/seasons/current", GetCurrentSeason(svc))
	api.Get("/seasons/:id/standings", GetStandings(svc))
	api.Get("/seasons/:id/rules", GetRules(svc))
	api.Get("/seasons/:id/players", GetPlayers(svc))
	api.Get("/seasons/:id/points/:category", GetPointsTable(svc))

	api.Get("/events/:id/results", GetEventResults(svc))

	if d.Hub != nil {
		api.Get("/notifications/stream", StreamNotifications(d.Hub, logger))
	}

	// Route group pattern: every route on admin runs Auth and RequireRole first.
	admin := api.Group("/admin", middleware.Auth(d.Config), middleware.RequireRole(middleware.RoleAdmin))

	admin.Post("/seasons", CreateSeason(svc))
	admin.Post("/seasons/:id/current", SetCurrentSeason(svc))
	admin.Put("/seasons/:id/rules", SaveRules(svc))
	admin.Put("/seasons/:id/points/:category", SavePoints(svc))
	admin.Post("/seasons/:id/players", AddPlayer(svc))
	admin.Post("/seasons/:id/copy-roster", CopyPreviousRoster(svc))
	admin.Post("/seasons/:id/events", CreateEvent(svc))
	admin.Put("/players/:id/handicap", UpdateHandicap(svc))

	admin.Post("/events/:id/save", SaveEvent(svc))
	admin.Post("/events/:id/save-team", SaveTeams(svc))
	admin.Post("/events/:id/toggle-lock", ToggleLock(svc))
	admin.Post("/events/:id/final-seeds", RebuildFinalSeeds(svc))
}
