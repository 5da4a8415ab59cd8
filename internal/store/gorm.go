package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	// clause builds the ON CONFLICT part of our bulk upserts.
	"gorm.io/gorm/clause"

	"github.com/trentd187/league-scoring/internal/models"
)

// GormStore implements Store on top of a *gorm.DB. The same type is used for the
// root connection and for a transaction handle inside Transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// wrap translates GORM errors into the store's error taxonomy.
func wrap(op, what string, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{What: what, ID: id.String()}
	}
	return &StorageError{Op: op, Err: err}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// --- Seasons ---

func (s *GormStore) Season(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	var season models.Season
	err := s.db.WithContext(ctx).First(&season, "id = ?", id).Error
	if err != nil {
		return nil, wrap("season", "season", id, err)
	}
	return &season, nil
}

// CurrentSeason returns the season flagged as current, falling back to the most
// recently created one when no season carries the flag.
func (s *GormStore) CurrentSeason(ctx context.Context) (*models.Season, error) {
	var season models.Season
	err := s.db.WithContext(ctx).
		Where("is_current = ?", true).
		Order("created_at DESC").
		First(&season).Error
	if err == nil {
		return &season, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &StorageError{Op: "current season", Err: err}
	}

	err = s.db.WithContext(ctx).Order("created_at DESC").First(&season).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{What: "season"}
		}
		return nil, &StorageError{Op: "latest season", Err: err}
	}
	return &season, nil
}

// PreviousSeason returns the season created just before the given one.
func (s *GormStore) PreviousSeason(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	current, err := s.Season(ctx, id)
	if err != nil {
		return nil, err
	}
	var prev models.Season
	err = s.db.WithContext(ctx).
		Where("created_at < ?", current.CreatedAt).
		Order("created_at DESC").
		First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{What: "previous season"}
		}
		return nil, &StorageError{Op: "previous season", Err: err}
	}
	return &prev, nil
}

func (s *GormStore) CreateSeason(ctx context.Context, season *models.Season) error {
	return wrap("create season", "season", season.ID, s.db.WithContext(ctx).Create(season).Error)
}

// SetCurrentSeason clears the flag on every season and sets it on one, atomically.
func (s *GormStore) SetCurrentSeason(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Season{}).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return &StorageError{Op: "clear current season", Err: err}
		}
		res := tx.Model(&models.Season{}).Where("id = ?", id).Update("is_current", true)
		if res.Error != nil {
			return &StorageError{Op: "set current season", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{What: "season", ID: id.String()}
		}
		return nil
	})
}

func (s *GormStore) SetLastNotifiedLeader(ctx context.Context, seasonID, personID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Season{}).
		Where("id = ?", seasonID).
		Update("last_notified_leader_person_id", personID)
	if res.Error != nil {
		return &StorageError{Op: "set leader", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{What: "season", ID: seasonID.String()}
	}
	return nil
}

// --- Rules and points ---

func (s *GormStore) Rules(ctx context.Context, seasonID uuid.UUID) (*models.SeasonRules, error) {
	var rules models.SeasonRules
	err := s.db.WithContext(ctx).First(&rules, "season_id = ?", seasonID).Error
	if err != nil {
		return nil, wrap("rules", "rules for season", seasonID, err)
	}
	return &rules, nil
}

func (s *GormStore) UpsertRules(ctx context.Context, rules *models.SeasonRules) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "season_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"regular_best_of",
			"major_best_of",
			"team_best_of",
			"hcp_zero_max",
			"hcp_two_max",
			"hcp_four_min",
			"final_start_scores",
			"updated_at",
		}),
	}).Create(rules).Error
	return wrap("upsert rules", "rules for season", rules.SeasonID, err)
}

// PointsRows returns the season's points table, optionally for one category only.
func (s *GormStore) PointsRows(ctx context.Context, seasonID uuid.UUID, category *models.Category) ([]models.PointsRow, error) {
	q := s.db.WithContext(ctx).Where("season_id = ?", seasonID)
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var rows []models.PointsRow
	if err := q.Order("category, placing").Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "points table", Err: err}
	}
	return rows, nil
}

func (s *GormStore) UpsertPointsRows(ctx context.Context, rows []models.PointsRow) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "season_id"}, {Name: "category"}, {Name: "placing"}},
		DoUpdates: clause.AssignmentColumns([]string{"points"}),
	}).Create(&rows).Error
	if err != nil {
		return &StorageError{Op: "upsert points table", Err: err}
	}
	return nil
}

// --- Roster ---

func (s *GormStore) CreatePerson(ctx context.Context, person *models.Person) error {
	return wrap("create person", "person", person.ID, s.db.WithContext(ctx).Create(person).Error)
}

func (s *GormStore) SeasonPlayers(ctx context.Context, seasonID uuid.UUID) ([]models.SeasonPlayer, error) {
	var players []models.SeasonPlayer
	err := s.db.WithContext(ctx).
		Preload("Person").
		Where("season_id = ?", seasonID).
		Order("created_at").
		Find(&players).Error
	if err != nil {
		return nil, &StorageError{Op: "season players", Err: err}
	}
	return players, nil
}

func (s *GormStore) InsertSeasonPlayers(ctx context.Context, players []models.SeasonPlayer) error {
	if len(players) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&players).Error; err != nil {
		return &StorageError{Op: "insert season players", Err: err}
	}
	return nil
}

func (s *GormStore) UpdateHandicap(ctx context.Context, seasonPlayerID uuid.UUID, hcp float64) error {
	res := s.db.WithContext(ctx).Model(&models.SeasonPlayer{}).
		Where("id = ?", seasonPlayerID).
		Update("hcp", hcp)
	if res.Error != nil {
		return &StorageError{Op: "update handicap", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{What: "season player", ID: seasonPlayerID.String()}
	}
	return nil
}

// --- Events ---

func (s *GormStore) Event(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, wrap("event", "event", id, err)
	}
	return &event, nil
}

func (s *GormStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return wrap("create event", "event", event.ID, s.db.WithContext(ctx).Create(event).Error)
}

func (s *GormStore) SetEventLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	res := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Update("locked", locked)
	if res.Error != nil {
		return &StorageError{Op: "set locked", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{What: "event", ID: id.String()}
	}
	return nil
}

func (s *GormStore) BumpEventVersion(ctx context.Context, id uuid.UUID, expected *int) (int, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id)
	if expected != nil {
		q = q.Where("version = ?", *expected)
	}
	res := q.Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return 0, &StorageError{Op: "bump version", Err: res.Error}
	}

	event, err := s.Event(ctx, id)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return event.Version, ErrVersionConflict
	}
	return event.Version, nil
}

// --- Results ---

func (s *GormStore) EventResults(ctx context.Context, eventID uuid.UUID) ([]models.Result, error) {
	var rows []models.Result
	err := s.db.WithContext(ctx).
		Preload("SeasonPlayer.Person").
		Where("event_id = ?", eventID).
		Order("placing IS NULL, placing, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, &StorageError{Op: "event results", Err: err}
	}
	return rows, nil
}

func (s *GormStore) LockedSeasonResults(ctx context.Context, seasonID uuid.UUID) ([]models.Result, error) {
	lockedEvents := s.db.Model(&models.Event{}).
		Select("id").
		Where("season_id = ? AND locked = ?", seasonID, true)

	var rows []models.Result
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("event_id IN (?)", lockedEvents).
		Find(&rows).Error
	if err != nil {
		return nil, &StorageError{Op: "season results", Err: err}
	}
	return rows, nil
}

// UpsertResults writes the whole batch in one INSERT ... ON CONFLICT statement keyed on
// (event_id, season_player_id), so re-scoring overwrites instead of accumulating.
func (s *GormStore) UpsertResults(ctx context.Context, rows []models.Result) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}, {Name: "season_player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gross_strokes",
				"did_not_play",
				"override_placing",
				"team_number",
				"team_score",
				"hcp_strokes",
				"net_strokes",
				"adjusted_score",
				"placing",
				"points",
				"updated_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return &StorageError{Op: "upsert results", Err: err}
	}
	return nil
}

// --- Final seeds ---

func (s *GormStore) StartScores(ctx context.Context, eventID uuid.UUID) ([]models.EventStartScore, error) {
	var rows []models.EventStartScore
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "start scores", Err: err}
	}
	return rows, nil
}

func (s *GormStore) DeleteStartScores(ctx context.Context, eventID uuid.UUID) error {
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.EventStartScore{}).Error
	if err != nil {
		return &StorageError{Op: "delete start scores", Err: err}
	}
	return nil
}

func (s *GormStore) UpsertStartScores(ctx context.Context, rows []models.EventStartScore) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "season_player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_score"}),
	}).Create(&rows).Error
	if err != nil {
		return &StorageError{Op: "upsert start scores", Err: err}
	}
	return nil
}
