// This file handles the season routes: standings, rules, points tables and the roster.
package handlers

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/league-scoring/internal/export"
	"github.com/trentd187/league-scoring/internal/league"
	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/scoring"
)

// SeasonResponse describes a season.
type SeasonResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
}

// StandingResponse is one line of the season table.
type StandingResponse struct {
	Position       int            `json:"position"`
	SeasonPlayerID string         `json:"season_player_id"`
	PersonID       string         `json:"person_id"`
	Name           string         `json:"name"`
	AvatarURL      *string        `json:"avatar_url"`
	Total          int            `json:"total"`
	ByCategory     map[string]int `json:"by_category"`
	Played         int            `json:"played"`
}

// RulesResponse is a season's resolved rule set.
type RulesResponse struct {
	RegularBestOf    int     `json:"regular_best_of"`
	MajorBestOf      int     `json:"major_best_of"`
	TeamBestOf       int     `json:"team_best_of"`
	HcpZeroMax       float64 `json:"hcp_zero_max"`
	HcpTwoMax        float64 `json:"hcp_two_max"`
	HcpFourMin       float64 `json:"hcp_four_min"`
	FinalStartScores []int   `json:"final_start_scores"`
}

// RulesRequest is a partial rules update; omitted fields keep their stored value.
type RulesRequest struct {
	RegularBestOf    *int     `json:"regular_best_of"`
	MajorBestOf      *int     `json:"major_best_of"`
	TeamBestOf       *int     `json:"team_best_of"`
	HcpZeroMax       *float64 `json:"hcp_zero_max"`
	HcpTwoMax        *float64 `json:"hcp_two_max"`
	HcpFourMin       *float64 `json:"hcp_four_min"`
	FinalStartScores []int    `json:"final_start_scores"`
}

// CreateSeasonRequest is the body of POST /api/v1/admin/seasons.
type CreateSeasonRequest struct {
	Name        string  `json:"name"`
	CopyFrom    *string `json:"copy_from"`
	CopyRules   bool    `json:"copy_rules"`
	CopyPoints  bool    `json:"copy_points"`
	CopyPlayers bool    `json:"copy_players"`
}

// PointsRequest maps placings to points, e.g. {"points": {"1": 1000, "2": 800}}.
type PointsRequest struct {
	Points map[int]int `json:"points"`
}

// PlayerRequest is the body of POST /api/v1/admin/seasons/:id/players.
type PlayerRequest struct {
	Name string  `json:"name"`
	Hcp  float64 `json:"hcp"`
}

// HandicapRequest is the body of PUT /api/v1/admin/players/:id/handicap.
type HandicapRequest struct {
	Hcp *float64 `json:"hcp"`
}

// PlayerResponse is one roster entry.
type PlayerResponse struct {
	ID       string  `json:"id"`
	PersonID string  `json:"person_id"`
	Name     string  `json:"name"`
	Hcp      float64 `json:"hcp"`
}

func seasonResponse(s *models.Season) SeasonResponse {
	return SeasonResponse{ID: s.ID.String(), Name: s.Name, IsCurrent: s.IsCurrent}
}

func rulesResponse(r scoring.Rules) RulesResponse {
	return RulesResponse{
		RegularBestOf:    r.RegularBestOf,
		MajorBestOf:      r.MajorBestOf,
		TeamBestOf:       r.TeamBestOf,
		HcpZeroMax:       r.ZeroMax,
		HcpTwoMax:        r.TwoMax,
		HcpFourMin:       r.FourMin,
		FinalStartScores: r.FinalStartScores,
	}
}

func playerResponse(p models.SeasonPlayer) PlayerResponse {
	return PlayerResponse{ID: p.ID.String(), PersonID: p.PersonID.String(), Name: p.Person.Name, Hcp: p.Hcp}
}

// seasonParam resolves the :id parameter, where "current" names the current season.
func seasonParam(c *fiber.Ctx, svc *league.Service) (*models.Season, bool, error) {
	if c.Params("id") == "current" {
		season, err := svc.CurrentSeason(c.UserContext())
		if err != nil {
			return nil, false, respondError(c, err)
		}
		return season, true, nil
	}
	id, ok, err := paramID(c, "id")
	if !ok {
		return nil, false, err
	}
	season, err := svc.Season(c.UserContext(), id)
	if err != nil {
		return nil, false, respondError(c, err)
	}
	return season, true, nil
}

// parseExclude reads ?exclude=team,major into categories.
func parseExclude(raw string) ([]models.Category, error) {
	var out []models.Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cat := models.Category(part)
		if !cat.Valid() {
			return nil, &scoring.ValidationError{Reason: "unknown event category " + part}
		}
		out = append(out, cat)
	}
	return out, nil
}

// GetCurrentSeason handles GET /api/v1/seasons/current.
func GetCurrentSeason(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		season, err := svc.CurrentSeason(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(seasonResponse(season))
	}
}

// GetStandings handles GET /api/v1/seasons/:id/standings.
//
// Query parameters:
//
//	exclude  comma-separated categories to leave out (e.g. "team")
//	format   json (default), yaml or xlsx
func GetStandings(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		season, ok, err := seasonParam(c, svc)
		if !ok {
			return err
		}
		exclude, err := parseExclude(c.Query("exclude"))
		if err != nil {
			return respondError(c, err)
		}
		standings, err := svc.Standings(c.UserContext(), season.ID, exclude...)
		if err != nil {
			return respondError(c, err)
		}

		var buf bytes.Buffer
		switch c.Query("format", "json") {
		case "xlsx":
			if err := export.WriteXLSX(&buf, season.Name, standings); err != nil {
				return respondError(c, err)
			}
			c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			c.Attachment(season.Name + ".xlsx")
			return c.Send(buf.Bytes())
		case "yaml":
			if err := export.WriteYAML(&buf, standings); err != nil {
				return respondError(c, err)
			}
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(buf.Bytes())
		case "json":
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "format must be json, yaml or xlsx",
			})
		}

		out := make([]StandingResponse, 0, len(standings))
		for _, s := range standings {
			byCat := make(map[string]int, len(s.ByCategory))
			for cat, pts := range s.ByCategory {
				byCat[string(cat)] = pts
			}
			out = append(out, StandingResponse{
				Position:       s.Position,
				SeasonPlayerID: s.SeasonPlayerID.String(),
				PersonID:       s.PersonID.String(),
				Name:           s.Name,
				AvatarURL:      s.AvatarURL,
				Total:          s.Total,
				ByCategory:     byCat,
				Played:         s.Played,
			})
		}
		return c.JSON(fiber.Map{"season": seasonResponse(season), "standings": out})
	}
}

// GetRules handles GET /api/v1/seasons/:id/rules.
func GetRules(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		season, ok, err := seasonParam(c, svc)
		if !ok {
			return err
		}
		r, err := svc.Rules(c.UserContext(), season.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rulesResponse(r))
	}
}

// GetPlayers handles GET /api/v1/seasons/:id/players.
func GetPlayers(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		season, ok, err := seasonParam(c, svc)
		if !ok {
			return err
		}
		players, err := svc.Players(c.UserContext(), season.ID)
		if err != nil {
			return respondError(c, err)
		}
		out := make([]PlayerResponse, 0, len(players))
		for _, p := range players {
			out = append(out, playerResponse(p))
		}
		return c.JSON(out)
	}
}

// GetPointsTable handles GET /api/v1/seasons/:id/points/:category?n=20.
func GetPointsTable(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		season, ok, err := seasonParam(c, svc)
		if !ok {
			return err
		}
		n := c.QueryInt("n", 20)
		if n < 1 || n > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "n must be between 1 and 200",
			})
		}
		points, err := svc.PointsTable(c.UserContext(), season.ID, models.Category(c.Params("category")), n)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"category": c.Params("category"), "points": points})
	}
}

// CreateSeason handles POST /api/v1/admin/seasons.
func CreateSeason(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateSeasonRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		copyFrom, err := optionalID(req.CopyFrom)
		if err != nil {
			return respondError(c, err)
		}
		season, err := svc.CreateSeason(c.UserContext(), league.CreateSeasonInput{
			Name:        req.Name,
			CopyFrom:    copyFrom,
			CopyRules:   req.CopyRules,
			CopyPoints:  req.CopyPoints,
			CopyPlayers: req.CopyPlayers,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(seasonResponse(season))
	}
}

// SetCurrentSeason handles POST /api/v1/admin/seasons/:id/current.
func SetCurrentSeason(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		if err := svc.SetCurrentSeason(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// SaveRules handles PUT /api/v1/admin/seasons/:id/rules.
func SaveRules(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		var req RulesRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		r, err := svc.SaveRules(c.UserContext(), id, league.RulesInput{
			RegularBestOf:    req.RegularBestOf,
			MajorBestOf:      req.MajorBestOf,
			TeamBestOf:       req.TeamBestOf,
			HcpZeroMax:       req.HcpZeroMax,
			HcpTwoMax:        req.HcpTwoMax,
			HcpFourMin:       req.HcpFourMin,
			FinalStartScores: req.FinalStartScores,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rulesResponse(r))
	}
}

// SavePoints handles PUT /api/v1/admin/seasons/:id/points/:category.
func SavePoints(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		var req PointsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		category := models.Category(c.Params("category"))
		if err := svc.SavePointsTable(c.UserContext(), id, category, req.Points); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "saved": len(req.Points)})
	}
}

// AddPlayer handles POST /api/v1/admin/seasons/:id/players.
func AddPlayer(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		var req PlayerRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		sp, err := svc.AddPlayer(c.UserContext(), id, req.Name, req.Hcp)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(playerResponse(*sp))
	}
}

// UpdateHandicap handles PUT /api/v1/admin/players/:id/handicap.
func UpdateHandicap(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		var req HandicapRequest
		if err := c.BodyParser(&req); err != nil || req.Hcp == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "hcp is required",
			})
		}
		if err := svc.UpdateHandicap(c.UserContext(), id, *req.Hcp); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// CopyPreviousRoster handles POST /api/v1/admin/seasons/:id/copy-roster.
func CopyPreviousRoster(svc *league.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := paramID(c, "id")
		if !ok {
			return err
		}
		added, err := svc.CopyPreviousRoster(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "added": added})
	}
}
