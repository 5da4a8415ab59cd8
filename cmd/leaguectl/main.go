// cmd/leaguectl is the operator's command-line tool: it runs migrations, exports
// standings, recomputes events (optionally from an XLSX score sheet) and rebuilds the
// Final seeds, all against the same database the server uses.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/trentd187/league-scoring/internal/config"
	"github.com/trentd187/league-scoring/internal/database"
	"github.com/trentd187/league-scoring/internal/export"
	"github.com/trentd187/league-scoring/internal/league"
	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/notify"
	"github.com/trentd187/league-scoring/internal/store"
)

const (
	seasonFlag  = "season"
	eventFlag   = "event"
	formatFlag  = "format"
	outputFlag  = "out"
	excludeFlag = "exclude"
	lockFlag    = "lock"
	sheetFlag   = "sheet"
	stdoutName  = "-"
)

func main() {
	cfg := config.Load()

	app := &cli.App{
		Name:  "leaguectl",
		Usage: "administer the league scoring database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "database-url",
				Usage:       "database DSN (postgres://... or sqlite://file.db)",
				EnvVars:     []string{"DATABASE_URL"},
				Destination: &cfg.DatabaseURL,
				Value:       cfg.DatabaseURL,
			},
		},
		Commands: []*cli.Command{
			migrateCommand(cfg),
			standingsCommand(cfg),
			recomputeCommand(cfg),
			seedFinalCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newService connects to the database and builds a league service whose
// announcements go to the log.
func newService(cfg *config.Config) (*league.Service, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()
	return league.New(league.Options{
		Store:     store.NewGormStore(db),
		Notifier:  notify.LogNotifier{Logger: logger},
		Logger:    logger,
		AppOrigin: cfg.AppOrigin,
	}), nil
}

func migrateCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Usage:       "directory holding the migration files",
				Value:       cfg.MigrationsDir,
				Destination: &cfg.MigrationsDir,
			},
		},
		Action: func(c *cli.Context) error {
			if database.IsSQLite(cfg.DatabaseURL) {
				_, err := database.Connect(cfg.DatabaseURL)
				return err
			}
			return database.RunMigrations(cfg.MigrationsDir, cfg.DatabaseURL)
		},
	}
}

func standingsCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "export season standings as json, yaml or xlsx",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: seasonFlag, Usage: "season id; defaults to the current season"},
			&cli.StringFlag{Name: formatFlag, Aliases: []string{"f"}, Value: "json", Usage: "json, yaml or xlsx"},
			&cli.StringFlag{Name: outputFlag, Aliases: []string{"o"}, Value: stdoutName, Usage: "output file, - for stdout"},
			&cli.StringSliceFlag{Name: excludeFlag, Usage: "categories to leave out, e.g. --exclude team"},
		},
		Action: func(c *cli.Context) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			season, err := resolveSeason(c.Context, svc, c.String(seasonFlag))
			if err != nil {
				return err
			}

			var exclude []models.Category
			for _, raw := range c.StringSlice(excludeFlag) {
				cat := models.Category(strings.TrimSpace(raw))
				if !cat.Valid() {
					return fmt.Errorf("unknown category %q", raw)
				}
				exclude = append(exclude, cat)
			}
			standings, err := svc.Standings(c.Context, season.ID, exclude...)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(c.String(outputFlag))
			if err != nil {
				return err
			}
			defer closeOut()

			switch c.String(formatFlag) {
			case "json":
				return export.WriteJSON(out, standings)
			case "yaml":
				return export.WriteYAML(out, standings)
			case "xlsx":
				return export.WriteXLSX(out, season.Name, standings)
			default:
				return fmt.Errorf("unknown format %q", c.String(formatFlag))
			}
		},
	}
}

func recomputeCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "score an event again from its stored rows, or from an XLSX score sheet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: eventFlag, Aliases: []string{"e"}, Required: true, Usage: "event id"},
			&cli.BoolFlag{Name: lockFlag, Usage: "lock the event afterwards"},
			&cli.StringFlag{Name: sheetFlag, Usage: "XLSX score sheet with Player and Gross columns"},
		},
		Action: func(c *cli.Context) error {
			eventID, err := uuid.Parse(c.String(eventFlag))
			if err != nil {
				return fmt.Errorf("invalid event id: %w", err)
			}
			svc, err := newService(cfg)
			if err != nil {
				return err
			}

			var res *league.SaveResult
			if path := c.String(sheetFlag); path != "" {
				res, err = saveFromSheet(c.Context, svc, eventID, path, c.Bool(lockFlag))
			} else {
				res, err = svc.Recompute(c.Context, eventID, c.Bool(lockFlag))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s: %d results, version %d, locked %t\n",
				res.Event.Name, len(res.Outcomes), res.Event.Version, res.Event.Locked)
			return nil
		},
	}
}

func saveFromSheet(ctx context.Context, svc *league.Service, eventID uuid.UUID, path string, lock bool) (*league.SaveResult, error) {
	event, _, err := svc.EventResults(ctx, eventID)
	if err != nil {
		return nil, err
	}
	players, err := svc.Players(ctx, event.SeasonID)
	if err != nil {
		return nil, err
	}
	roster := make(map[string]uuid.UUID, len(players))
	for _, p := range players {
		roster[p.Person.Name] = p.ID
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := export.ReadScoreSheet(f, roster)
	if err != nil {
		return nil, err
	}
	return svc.ComputeEvent(ctx, eventID, league.SaveRequest{Entries: entries, Lock: lock})
}

func seedFinalCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "seed-final",
		Usage: "rebuild a Final's start scores from the current standings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: eventFlag, Aliases: []string{"e"}, Required: true, Usage: "final event id"},
		},
		Action: func(c *cli.Context) error {
			eventID, err := uuid.Parse(c.String(eventFlag))
			if err != nil {
				return fmt.Errorf("invalid event id: %w", err)
			}
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			seeds, err := svc.RebuildFinalSeeds(c.Context, eventID)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d players\n", len(seeds))
			return nil
		},
	}
}

func resolveSeason(ctx context.Context, svc *league.Service, raw string) (*models.Season, error) {
	if raw == "" {
		return svc.CurrentSeason(ctx)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid season id: %w", err)
	}
	return svc.Season(ctx, id)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == stdoutName {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
