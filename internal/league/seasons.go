package league

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/scoring"
	"github.com/trentd187/league-scoring/internal/store"
)

// CreateSeasonInput describes a new season and what to copy into it.
type CreateSeasonInput struct {
	Name        string
	CopyFrom    *uuid.UUID // template season; nil starts from the defaults
	CopyRules   bool
	CopyPoints  bool
	CopyPlayers bool
}

// CreateSeason creates a season. Without a template (or without CopyRules) it gets a
// rules row with the default best-of counts.
func (s *Service) CreateSeason(ctx context.Context, in CreateSeasonInput) (*models.Season, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("season name is required")
	}

	season := &models.Season{Name: name}
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if in.CopyFrom != nil {
			if _, err := tx.Season(ctx, *in.CopyFrom); err != nil {
				return err
			}
		}
		if err := tx.CreateSeason(ctx, season); err != nil {
			return err
		}

		rulesRow := defaultRulesRow(season.ID)
		if in.CopyFrom != nil && in.CopyRules {
			src, err := tx.Rules(ctx, *in.CopyFrom)
			switch {
			case err == nil:
				copied := *src
				copied.ID = uuid.Nil
				copied.SeasonID = season.ID
				copied.CreatedAt, copied.UpdatedAt = time.Time{}, time.Time{}
				rulesRow = &copied
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}
		if err := tx.UpsertRules(ctx, rulesRow); err != nil {
			return err
		}

		if in.CopyFrom == nil {
			return nil
		}
		if in.CopyPoints {
			rows, err := tx.PointsRows(ctx, *in.CopyFrom, nil)
			if err != nil {
				return err
			}
			for i := range rows {
				rows[i].ID = uuid.Nil
				rows[i].SeasonID = season.ID
			}
			if err := tx.UpsertPointsRows(ctx, rows); err != nil {
				return err
			}
		}
		if in.CopyPlayers {
			players, err := tx.SeasonPlayers(ctx, *in.CopyFrom)
			if err != nil {
				return err
			}
			if err := tx.InsertSeasonPlayers(ctx, carryOver(players, season.ID, nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "season created", "season_id", season.ID, "name", season.Name)
	return season, nil
}

func defaultRulesRow(seasonID uuid.UUID) *models.SeasonRules {
	regular, major, team := scoring.DefaultRegularBestOf, scoring.DefaultMajorBestOf, scoring.DefaultTeamBestOf
	return &models.SeasonRules{
		SeasonID:      seasonID,
		RegularBestOf: &regular,
		MajorBestOf:   &major,
		TeamBestOf:    &team,
	}
}

// carryOver copies roster rows into another season, skipping people already in skip.
func carryOver(players []models.SeasonPlayer, seasonID uuid.UUID, skip map[uuid.UUID]bool) []models.SeasonPlayer {
	var out []models.SeasonPlayer
	for _, p := range players {
		if skip[p.PersonID] {
			continue
		}
		out = append(out, models.SeasonPlayer{SeasonID: seasonID, PersonID: p.PersonID, Hcp: p.Hcp})
	}
	return out
}

// SetCurrentSeason makes id the one current season.
func (s *Service) SetCurrentSeason(ctx context.Context, id uuid.UUID) error {
	return s.store.SetCurrentSeason(ctx, id)
}

// CurrentSeason returns the flagged season, or the most recently created one.
func (s *Service) CurrentSeason(ctx context.Context) (*models.Season, error) {
	return s.store.CurrentSeason(ctx)
}

// Season returns one season.
func (s *Service) Season(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	return s.store.Season(ctx, id)
}

// RulesInput is a partial rules update; nil fields keep their stored value.
type RulesInput struct {
	RegularBestOf    *int
	MajorBestOf      *int
	TeamBestOf       *int
	HcpZeroMax       *float64
	HcpTwoMax        *float64
	HcpFourMin       *float64
	FinalStartScores []int
}

// SaveRules merges in into the season's rules and stores them. The merged rule set
// must pass scoring.Rules.Validate.
func (s *Service) SaveRules(ctx context.Context, seasonID uuid.UUID, in RulesInput) (scoring.Rules, error) {
	var resolved scoring.Rules
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Season(ctx, seasonID); err != nil {
			return err
		}
		row, err := tx.Rules(ctx, seasonID)
		if errors.Is(err, store.ErrNotFound) {
			row = &models.SeasonRules{SeasonID: seasonID}
		} else if err != nil {
			return err
		}

		if in.RegularBestOf != nil {
			row.RegularBestOf = in.RegularBestOf
		}
		if in.MajorBestOf != nil {
			row.MajorBestOf = in.MajorBestOf
		}
		if in.TeamBestOf != nil {
			row.TeamBestOf = in.TeamBestOf
		}
		if in.HcpZeroMax != nil {
			row.HcpZeroMax = in.HcpZeroMax
		}
		if in.HcpTwoMax != nil {
			row.HcpTwoMax = in.HcpTwoMax
		}
		if in.HcpFourMin != nil {
			row.HcpFourMin = in.HcpFourMin
		}
		if in.FinalStartScores != nil {
			row.FinalStartScores = datatypes.JSONSlice[int](in.FinalStartScores)
		}

		resolved = scoring.RulesFromModel(row)
		if err := resolved.Validate(); err != nil {
			return err
		}
		return tx.UpsertRules(ctx, row)
	})
	if err != nil {
		return scoring.Rules{}, err
	}
	return resolved, nil
}

// SavePointsTable upserts the points for some placings of one category.
func (s *Service) SavePointsTable(ctx context.Context, seasonID uuid.UUID, category models.Category, points map[int]int) error {
	if !category.Valid() {
		return invalidf("unknown event category %q", category)
	}
	rows := make([]models.PointsRow, 0, len(points))
	for placing, pts := range points {
		if placing < 1 {
			return invalidf("placing must be positive, got %d", placing)
		}
		if pts < 0 {
			return invalidf("points for placing %d must not be negative", placing)
		}
		rows = append(rows, models.PointsRow{SeasonID: seasonID, Category: category, Placing: placing, Points: pts})
	}
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Season(ctx, seasonID); err != nil {
			return err
		}
		return tx.UpsertPointsRows(ctx, rows)
	})
}

// PointsTable returns the effective points for placings 1..n of a category, stored
// rows first and the built-in table otherwise.
func (s *Service) PointsTable(ctx context.Context, seasonID uuid.UUID, category models.Category, n int) ([]int, error) {
	if !category.Valid() {
		return nil, invalidf("unknown event category %q", category)
	}
	rows, err := s.store.PointsRows(ctx, seasonID, &category)
	if err != nil {
		return nil, err
	}
	table := scoring.NewPointsTable(category, rows)
	out := make([]int, n)
	for i := range out {
		out[i] = table.For(i + 1)
	}
	return out, nil
}

// AddPlayer creates a person and enrols them in the season.
func (s *Service) AddPlayer(ctx context.Context, seasonID uuid.UUID, name string, hcp float64) (*models.SeasonPlayer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("player name is required")
	}
	if hcp < 0 || hcp > 54 {
		return nil, invalidf("handicap %.1f is out of range", hcp)
	}
	var sp models.SeasonPlayer
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Season(ctx, seasonID); err != nil {
			return err
		}
		person := &models.Person{Name: name}
		if err := tx.CreatePerson(ctx, person); err != nil {
			return err
		}
		sp = models.SeasonPlayer{SeasonID: seasonID, PersonID: person.ID, Person: *person, Hcp: hcp}
		players := []models.SeasonPlayer{sp}
		if err := tx.InsertSeasonPlayers(ctx, players); err != nil {
			return err
		}
		sp.ID = players[0].ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// UpdateHandicap sets a season player's handicap.
func (s *Service) UpdateHandicap(ctx context.Context, seasonPlayerID uuid.UUID, hcp float64) error {
	if hcp < 0 || hcp > 54 {
		return invalidf("handicap %.1f is out of range", hcp)
	}
	return s.store.UpdateHandicap(ctx, seasonPlayerID, hcp)
}

// CopyPreviousRoster adds the previous season's players who are not yet in this season.
// Existing handicaps are left alone. It returns how many players were added.
func (s *Service) CopyPreviousRoster(ctx context.Context, seasonID uuid.UUID) (int, error) {
	added := 0
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		prev, err := tx.PreviousSeason(ctx, seasonID)
		if errors.Is(err, store.ErrNotFound) {
			if _, err := tx.Season(ctx, seasonID); err != nil {
				return err
			}
			return nil
		}
		if err != nil {
			return err
		}

		previous, err := tx.SeasonPlayers(ctx, prev.ID)
		if err != nil {
			return err
		}
		current, err := tx.SeasonPlayers(ctx, seasonID)
		if err != nil {
			return err
		}
		existing := make(map[uuid.UUID]bool, len(current))
		for _, p := range current {
			existing[p.PersonID] = true
		}

		missing := carryOver(previous, seasonID, existing)
		added = len(missing)
		return tx.InsertSeasonPlayers(ctx, missing)
	})
	return added, err
}

// EventInput describes a new event.
type EventInput struct {
	Name     string
	Course   *string
	Category models.Category
	StartsAt *time.Time
}

// CreateEvent adds an unlocked event to a season.
func (s *Service) CreateEvent(ctx context.Context, seasonID uuid.UUID, in EventInput) (*models.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("event name is required")
	}
	if !in.Category.Valid() {
		return nil, invalidf("unknown event category %q", in.Category)
	}
	event := &models.Event{
		SeasonID: seasonID,
		Name:     name,
		Course:   in.Course,
		Category: in.Category,
		StartsAt: in.StartsAt,
	}
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Season(ctx, seasonID); err != nil {
			return err
		}
		return tx.CreateEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Rules returns the season's resolved rule set.
func (s *Service) Rules(ctx context.Context, seasonID uuid.UUID) (scoring.Rules, error) {
	if _, err := s.store.Season(ctx, seasonID); err != nil {
		return scoring.Rules{}, err
	}
	return rules(ctx, s.store, seasonID)
}

// Players returns the season's roster in enrolment order.
func (s *Service) Players(ctx context.Context, seasonID uuid.UUID) ([]models.SeasonPlayer, error) {
	if _, err := s.store.Season(ctx, seasonID); err != nil {
		return nil, err
	}
	return s.store.SeasonPlayers(ctx, seasonID)
}
