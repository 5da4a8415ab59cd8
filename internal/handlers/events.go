// This file handles the event routes: saving results, saving team sheets, locking,
// rebuilding the Final seeds and reading an event's results.
//
// Only the admin may write. Every write goes through the league service, which runs
// the whole save (read, compute, upsert, lock) inside one database transaction.
package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/league-scoring/internal/league"
	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/scoring"
)

// EntryRequest is one player's line in a save request.
type EntryRequest struct {
	SeasonPlayerID  string `json:"season_player_id"`
	GrossStrokes    *int   `json:"gross_strokes"`
	DidNotPlay      bool   `json:"did_not_play"`
	OverridePlacing *int   `json:"override_placing"`
	TeamNumber      *int   `json:"team_number"`
	TeamScore       *int   `json:"team_score"`
}

// SaveEventRequest is the body of POST /api/v1/admin/events/:id/save.
// It can arrive as JSON, or as a form with an "entries" field holding the JSON array
// and "lock"/"unlock" fields set to "true".
type SaveEventRequest struct {
	Entries         []EntryRequest `json:"entries"`
	Lock            bool           `json:"lock"`
	Unlock          bool           `json:"unlock"`
	ExpectedVersion *int           `json:"expected_version"`
}

// TeamRequest is one team sheet in a team save.
type TeamRequest struct {
	Number  int     `json:"team_number"`
	PlayerA *string `json:"player_a"`
	PlayerB *string `json:"player_b"`
	Score   *int    `json:"team_score"`
}

// SaveTeamsRequest is the body of POST /api/v1/admin/events/:id/save-team.
type SaveTeamsRequest struct {
	Teams           []TeamRequest `json:"teams"`
	LockState       *bool         `json:"lock_state"` // null leaves the lock as it is
	ExpectedVersion *int          `json:"expected_version"`
}

// ResultResponse is one row of an event's results.
type ResultResponse struct {
	SeasonPlayerID  string `json:"season_player_id"`
	Name            string `json:"name"`
	GrossStrokes    *int   `json:"gross_strokes"`
	DidNotPlay      bool   `json:"did_not_play"`
	OverridePlacing *int   `json:"override_placing"`
	TeamNumber      *int   `json:"team_number"`
	TeamScore       *int   `json:"team_score"`
	HcpStrokes      int    `json:"hcp_strokes"`
	NetStrokes      *int   `json:"net_strokes"`
	AdjustedScore   *int   `json:"adjusted_score"`
	Placing         *int   `json:"placing"`
	Points          int    `json:"points"`
}

// EventResponse describes an event.
type EventResponse struct {
	ID       string  `json:"id"`
	SeasonID string  `json:"season_id"`
	Name     string  `json:"name"`
	Course   *string `json:"course"`
	Category string  `json:"category"`
	Locked   bool    `json:"locked"`
	StartsAt *string `json:"starts_at"` // RFC 3339 or null
	Version  int     `json:"version"`
}

// CreateEventRequest is the body of POST /api/v1/admin/seasons/:id/events.
type CreateEventRequest struct {
	Name     string  `json:"name"`
	Course   *string `json:"course"`
	Category string  `json:"category"`
	StartsAt *string `json:"starts_at"` // RFC 3339
}

func eventResponse(e models.Event) EventResponse {
	resp := EventResponse{
		ID:       e.ID.String(),
		SeasonID: e.SeasonID.String(),
		Name:     e.Name,
		Course:   e.Course,
		Category: string(e.Category),
		Locked:   e.Locked,
		Version:  e.Version,
	}
	if e.StartsAt != nil {
		s := e.StartsAt.UTC().Format(time.RFC3339)
		resp.StartsAt = &s
	}
	return resp
}

func saveResponse(res *league.SaveResult) fiber.Map {
	seeds := make(map[string]int, len(res.Seeds))
	for id, start := range res.Seeds {
		seeds[id.String()] = start
	}
	return fiber.Map{
		"ok":         true,
		"event":      eventResponse(res.Event),
		"results":    len(res.Outcomes),
		"seeds":      seeds,
		"locked_now": res.LockedNow,
	}
}

// parseSaveRequest reads a save body in either of its two encodings.
func parseSaveRequest(c *fiber.Ctx) (SaveEventRequest, error) {
	var req SaveEventRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		err := c.BodyParser(&req)
		return req, err
	}
	if raw := c.FormValue("entries"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Entries); err != nil {
			return req, err
		}
	}
	req.Lock = c.FormValue("lock") == "true"
	req.Unlock = c.FormValue("unlock") == "true"
	return req, nil
}

func toEntries(in []EntryRequest) ([]scoring.Entry, error) {
	entries := make([]scoring.Entry, 0, len(in))
	for _, e := range in {
		id, err := uuid.Parse(e.SeasonPlayerID)
		if err != nil {
			return nil, &scoring.ValidationError{Reason: "invalid season_player_id " + e.SeasonPlayerID}
		}
		entries = append(entries, scoring.Entry{
			SeasonPlayerID:  id,
			GrossStrokes:    e.GrossStrokes,
			DidNotPlay:      e.DidNotPlay,
			OverridePlacing: e.OverridePlacing,
			TeamNumber:      e.TeamNumber,
			TeamScore:       e.TeamScore,
		})
	}
	return entries, nil
}

func optionalID(s *string) (*uuid.UUID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, &scoring.ValidationError{Reason: "invalid player id " + *s}
	}
	return &id, nil
}

// SaveEvent handles POST /api/v1/admin/events/:id/save.
// It scores the event from the submitted entries, persists the results and optionally
// locks (or, with unlock, only unlocks) the event.
func SaveEvent(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventID, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		req, err := parseSaveRequest(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		entries, err := toEntries(req.Entries)
		if err != nil {
			return respondError(c, err)
		}

		res, err := svc.ComputeEvent(c.UserContext(), eventID, league.SaveRequest{
			Entries:         entries,
			Lock:            req.Lock,
			Unlock:          req.Unlock,
			ExpectedVersion: req.ExpectedVersion,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(saveResponse(res))
	}
}

// SaveTeams handles POST /api/v1/admin/events/:id/save-team for team events.
func SaveTeams(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventID, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		var req SaveTeamsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		sheets := make([]scoring.TeamSheet, 0, len(req.Teams))
		for _, t := range req.Teams {
			a, err := optionalID(t.PlayerA)
			if err != nil {
				return respondError(c, err)
			}
			b, err := optionalID(t.PlayerB)
			if err != nil {
				return respondError(c, err)
			}
			sheets = append(sheets, scoring.TeamSheet{Number: t.Number, PlayerA: a, PlayerB: b, Score: t.Score})
		}

		res, err := svc.SaveTeams(c.UserContext(), eventID, league.TeamSaveRequest{
			Teams:           sheets,
			Lock:            req.LockState,
			ExpectedVersion: req.ExpectedVersion,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(saveResponse(res))
	}
}

// ToggleLock handles POST /api/v1/admin/events/:id/toggle-lock.
// It responds with the lock state before and after, e.g. {"ok":true,"before":false,"after":true}.
func ToggleLock(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventID, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		before, after, err := svc.ToggleLock(c.UserContext(), eventID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "before": before, "after": after})
	}
}

// RebuildFinalSeeds handles POST /api/v1/admin/events/:id/final-seeds.
func RebuildFinalSeeds(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventID, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		seeds, err := svc.RebuildFinalSeeds(c.UserContext(), eventID)
		if err != nil {
			return respondError(c, err)
		}
		out := make(map[string]int, len(seeds))
		for id, start := range seeds {
			out[id.String()] = start
		}
		return c.JSON(fiber.Map{"seeds": out})
	}
}

// GetEventResults handles GET /api/v1/events/:id/results.
// Rows come back ordered by placing, unranked rows last.
func GetEventResults(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventID, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		event, rows, err := svc.EventResults(c.UserContext(), eventID)
		if err != nil {
			return respondError(c, err)
		}

		results := make([]ResultResponse, 0, len(rows))
		for _, r := range rows {
			results = append(results, ResultResponse{
				SeasonPlayerID:  r.SeasonPlayerID.String(),
				Name:            r.SeasonPlayer.Person.Name,
				GrossStrokes:    r.GrossStrokes,
				DidNotPlay:      r.DidNotPlay,
				OverridePlacing: r.OverridePlacing,
				TeamNumber:      r.TeamNumber,
				TeamScore:       r.TeamScore,
				HcpStrokes:      r.HcpStrokes,
				NetStrokes:      r.NetStrokes,
				AdjustedScore:   r.AdjustedScore,
				Placing:         r.Placing,
				Points:          r.Points,
			})
		}
		return c.JSON(fiber.Map{"event": eventResponse(*event), "results": results})
	}
}

// CreateEvent handles POST /api/v1/admin/seasons/:id/events.
func CreateEvent(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		seasonID, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		var req CreateEventRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		var startsAt *time.Time
		if req.StartsAt != nil && *req.StartsAt != "" {
			t, err := time.Parse(time.RFC3339, *req.StartsAt)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "starts_at must be an RFC 3339 timestamp",
				})
			}
			startsAt = &t
		}

		event, err := svc.CreateEvent(c.UserContext(), seasonID, league.EventInput{
			Name:     req.Name,
			Course:   req.Course,
			Category: models.Category(req.Category),
			StartsAt: startsAt,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(eventResponse(*event))
	}
}
