// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a season-based golf league where:
//   - A Season owns its Rules, its points table and its roster (SeasonPlayer rows)
//   - A Person is the long-lived identity; SeasonPlayer is that person's membership
//     in one season and carries the season-specific handicap
//   - Events belong to a Season and have a Category (regular, major, team, final)
//   - Results hold one computed outcome per player per event
//   - EventStartScore rows hold the seeded starting offsets for the Final
//
// Teams are not stored on their own: team members share a team number and team score
// on their Result rows, and the scoring package rebuilds the teams in memory.
package models

import (
	"time"

	// uuid provides universally unique identifiers for primary keys.
	"github.com/google/uuid"
	// datatypes gives us a JSON column type for the Final start-score array.
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- Enums ---
// Go doesn't have a built-in enum keyword, so we simulate them using a named string type
// plus constants. This gives us type safety while keeping the values human-readable in the database.

// Category describes what kind of league event is being played.
// The category decides which points table applies and how the score is computed.
type Category string

const (
	CategoryRegular Category = "regular" // Ordinary stroke play, net score after handicap banding
	CategoryMajor   Category = "major"   // Same scoring as regular but with a heavier points table
	CategoryTeam    Category = "team"    // Two-player teams share one gross score; no banding
	CategoryFinal   Category = "final"   // Season finale; starting offsets are seeded from the standings
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryRegular, CategoryMajor, CategoryTeam, CategoryFinal}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryRegular, CategoryMajor, CategoryTeam, CategoryFinal:
		return true
	}
	return false
}

// Label is the human-readable name used in notifications.
func (c Category) Label() string {
	switch c {
	case CategoryRegular:
		return "Regular"
	case CategoryMajor:
		return "Major"
	case CategoryTeam:
		return "Team"
	case CategoryFinal:
		return "Final"
	}
	return string(c)
}

// NotificationKind is the audience a lock announcement is sent to.
type NotificationKind string

const (
	NotificationResults NotificationKind = "results" // Winner announcement for a freshly locked event
	NotificationLeader  NotificationKind = "leader"  // The season leader changed
)

// --- Models ---
// Each struct below maps to a database table. GORM uses the struct name (snake_cased and
// pluralized) as the table name by default: Season -> seasons, Event -> events, etc.
//
// IDs are generated in BeforeCreate hooks rather than by a database default, so the same
// models work against PostgreSQL in production and SQLite in tests.

// Season is one league year. Exactly one season is flagged as current at a time;
// SetCurrentSeason in the league service keeps that true.
type Season struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	IsCurrent bool      `gorm:"not null;default:false;index"`
	// LastNotifiedLeaderPersonID remembers who we last announced as season leader,
	// so a new "leader" notification only fires when the leader actually changes.
	LastNotifiedLeaderPersonID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

func (s *Season) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SeasonRules holds the per-season tuning knobs. Every column is nullable: a missing
// value falls back to the built-in default instead of blocking scoring.
type SeasonRules struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeasonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"` // 1:1 with Season

	// Best-of-N counters: only the N best point hauls per category count toward the total.
	RegularBestOf *int
	MajorBestOf   *int
	TeamBestOf    *int

	// Handicap banding thresholds (see scoring.BandingStrokes).
	HcpZeroMax *float64 // handicap <= this plays off 0 strokes
	HcpTwoMax  *float64 // handicap <= this (and below HcpFourMin) gets 2 strokes
	HcpFourMin *float64 // handicap >= this gets 4 strokes

	// FinalStartScores is the 9-value offset array for the Final:
	// ranks 1..8 individually, the 9th value for ranks 9..12.
	FinalStartScores datatypes.JSONSlice[int]

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *SeasonRules) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PointsRow is one entry of a season's points table: how many league points a
// given placing is worth in a given category. Maps to the points_table table.
type PointsRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeasonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_points_season_category_placing"`
	Category Category  `gorm:"type:varchar(16);not null;uniqueIndex:idx_points_season_category_placing"`
	Placing  int       `gorm:"not null;uniqueIndex:idx_points_season_category_placing"` // 1 = winner
	Points   int       `gorm:"not null"`
}

func (PointsRow) TableName() string { return "points_table" }

func (p *PointsRow) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Person is the identity that survives across seasons (name and avatar).
type Person struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	AvatarURL *string   // Optional profile picture; pointer = nullable
	CreatedAt time.Time
}

func (p *Person) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SeasonPlayer is a Person's membership in one Season. The handicap lives here because
// it changes from season to season while the person does not.
type SeasonPlayer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeasonID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_season_person"`
	PersonID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_season_person"`
	Person    Person    `gorm:"foreignKey:PersonID"`
	Hcp       float64   `gorm:"type:decimal(4,1);not null;default:0"` // e.g. 14.2
	CreatedAt time.Time
}

func (p *SeasonPlayer) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Event is a single league competition within a season.
//
// Locked is the only gate deciding whether the event's results count: aggregation reads
// locked events only. Version is bumped on every successful save so that callers can
// opt into an optimistic-concurrency check.
type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeasonID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Course    *string   // Where it is played; falls back to Name in notifications
	Category  Category  `gorm:"type:varchar(16);not null"`
	Locked    bool      `gorm:"not null;default:false"`
	StartsAt  *time.Time
	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Result is the computed outcome for one SeasonPlayer in one Event.
// The unique index (idx_result_event_player) is the conflict target for the bulk upsert,
// so re-scoring an event overwrites rows instead of adding to them.
type Result struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	EventID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_result_event_player"`
	Event          Event        `gorm:"foreignKey:EventID"`
	SeasonPlayerID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_result_event_player"`
	SeasonPlayer   SeasonPlayer `gorm:"foreignKey:SeasonPlayerID"`

	// --- Inputs ---
	GrossStrokes    *int // Raw strokes; nil when not entered
	DidNotPlay      bool `gorm:"not null;default:false"`
	OverridePlacing *int // Manual intra-tie ordinal (playoff result)
	TeamNumber      *int // Team events only
	TeamScore       *int // Team events only: the team's shared gross score

	// --- Computed ---
	HcpStrokes    int  `gorm:"not null;default:0"`
	NetStrokes    *int // Regular and major events
	AdjustedScore *int // Final only: net plus seeded start offset
	Placing       *int // nil when the player was not ranked
	Points        int  `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Result) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// EventStartScore is a FinalSeed: the starting offset a player carries into the Final.
// The whole set for an event is deleted and rebuilt every time the Final is saved.
type EventStartScore struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_start_event_player"`
	SeasonPlayerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_start_event_player"`
	StartScore     int       `gorm:"not null"`
	CreatedAt      time.Time
}

func (s *EventStartScore) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Season{},
		&SeasonRules{},
		&PointsRow{},
		&Person{},
		&SeasonPlayer{},
		&Event{},
		&Result{},
		&EventStartScore{},
	}
}
