// Package store is the data-store collaborator of the scoring engine: keyed reads,
// filtered reads, bulk upserts by conflict key and deletes by filter over the league
// tables. The league service only sees the Store interface; GormStore implements it
// with GORM so it runs against PostgreSQL in production and SQLite in tests.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/trentd187/league-scoring/internal/models"
)

// ErrNotFound is returned when a referenced event, season, rules row or player is missing.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned when an event was saved by someone else since the
// caller loaded it.
var ErrVersionConflict = errors.New("event was modified by another save")

// StorageError wraps any other read/write failure. Its message is the underlying
// driver message so callers can pass it through verbatim.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotFoundError names what was missing while still matching ErrNotFound.
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.What)
	}
	return fmt.Sprintf("%s %s not found", e.What, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Store is everything the league service reads and writes.
type Store interface {
	// Transaction runs fn against a Store bound to one database transaction.
	// Returning an error from fn rolls the whole unit of work back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	Season(ctx context.Context, id uuid.UUID) (*models.Season, error)
	CurrentSeason(ctx context.Context) (*models.Season, error)
	PreviousSeason(ctx context.Context, id uuid.UUID) (*models.Season, error)
	CreateSeason(ctx context.Context, season *models.Season) error
	SetCurrentSeason(ctx context.Context, id uuid.UUID) error
	SetLastNotifiedLeader(ctx context.Context, seasonID, personID uuid.UUID) error

	// Rules returns ErrNotFound when the season has no rules row.
	Rules(ctx context.Context, seasonID uuid.UUID) (*models.SeasonRules, error)
	UpsertRules(ctx context.Context, rules *models.SeasonRules) error
	PointsRows(ctx context.Context, seasonID uuid.UUID, category *models.Category) ([]models.PointsRow, error)
	UpsertPointsRows(ctx context.Context, rows []models.PointsRow) error

	CreatePerson(ctx context.Context, person *models.Person) error
	SeasonPlayers(ctx context.Context, seasonID uuid.UUID) ([]models.SeasonPlayer, error)
	InsertSeasonPlayers(ctx context.Context, players []models.SeasonPlayer) error
	UpdateHandicap(ctx context.Context, seasonPlayerID uuid.UUID, hcp float64) error

	Event(ctx context.Context, id uuid.UUID) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	SetEventLocked(ctx context.Context, id uuid.UUID, locked bool) error
	// BumpEventVersion increments the event's version. When expected is non-nil the
	// update only applies if the stored version still matches, else ErrVersionConflict.
	BumpEventVersion(ctx context.Context, id uuid.UUID, expected *int) (int, error)

	EventResults(ctx context.Context, eventID uuid.UUID) ([]models.Result, error)
	// LockedSeasonResults returns every result of a locked event in the season, with
	// the Event preloaded.
	LockedSeasonResults(ctx context.Context, seasonID uuid.UUID) ([]models.Result, error)
	UpsertResults(ctx context.Context, rows []models.Result) error

	StartScores(ctx context.Context, eventID uuid.UUID) ([]models.EventStartScore, error)
	DeleteStartScores(ctx context.Context, eventID uuid.UUID) error
	UpsertStartScores(ctx context.Context, rows []models.EventStartScore) error
}
