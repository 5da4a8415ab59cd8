// Package scoring is the results computation engine: handicap banding, tie-aware
// placement, points lookup, best-of-N season aggregation and Final seeding.
//
// Everything in this package is pure. It never touches the database; the league
// service loads the inputs, calls in here and persists what comes back.
package scoring

import (
	"fmt"

	"github.com/trentd187/league-scoring/internal/models"
)

// Built-in defaults used when a season has no rules row, or a column is null.
const (
	DefaultRegularBestOf = 4
	DefaultMajorBestOf   = 3
	DefaultTeamBestOf    = 2

	DefaultHcpZeroMax = 10.5
	DefaultHcpTwoMax  = 15.5
	DefaultHcpFourMin = 15.6
)

// DefaultFinalStartScores are the Final offsets for ranks 1..8 plus the overflow value
// shared by ranks 9..12.
var DefaultFinalStartScores = []int{-10, -8, -6, -5, -4, -3, -2, -1, 0}

// Rules is the resolved (defaults applied) rule set for one season.
type Rules struct {
	RegularBestOf int
	MajorBestOf   int
	TeamBestOf    int

	ZeroMax float64
	TwoMax  float64
	FourMin float64

	FinalStartScores []int
}

// DefaultRules returns the rule set a season gets when nothing is configured.
func DefaultRules() Rules {
	return Rules{
		RegularBestOf:    DefaultRegularBestOf,
		MajorBestOf:      DefaultMajorBestOf,
		TeamBestOf:       DefaultTeamBestOf,
		ZeroMax:          DefaultHcpZeroMax,
		TwoMax:           DefaultHcpTwoMax,
		FourMin:          DefaultHcpFourMin,
		FinalStartScores: append([]int(nil), DefaultFinalStartScores...),
	}
}

// RulesFromModel resolves a stored rules row. A nil row yields DefaultRules.
func RulesFromModel(m *models.SeasonRules) Rules {
	r := DefaultRules()
	if m == nil {
		return r
	}
	if m.RegularBestOf != nil {
		r.RegularBestOf = *m.RegularBestOf
	}
	if m.MajorBestOf != nil {
		r.MajorBestOf = *m.MajorBestOf
	}
	if m.TeamBestOf != nil {
		r.TeamBestOf = *m.TeamBestOf
	}
	if m.HcpZeroMax != nil {
		r.ZeroMax = *m.HcpZeroMax
	}
	if m.HcpTwoMax != nil {
		r.TwoMax = *m.HcpTwoMax
	}
	if m.HcpFourMin != nil {
		r.FourMin = *m.HcpFourMin
	}
	if len(m.FinalStartScores) > 0 {
		r.FinalStartScores = append([]int(nil), m.FinalStartScores...)
	}
	return r
}

// BestOf returns how many results of the category count toward the season total.
// The Final has no best-of rule; it is always excluded from the season aggregate.
func (r Rules) BestOf(c models.Category) int {
	switch c {
	case models.CategoryRegular:
		return r.RegularBestOf
	case models.CategoryMajor:
		return r.MajorBestOf
	case models.CategoryTeam:
		return r.TeamBestOf
	}
	return 0
}

// Validate rejects rule sets that would make banding or aggregation ambiguous.
// It is applied when rules are written, not when they are read.
func (r Rules) Validate() error {
	if r.RegularBestOf < 0 || r.MajorBestOf < 0 || r.TeamBestOf < 0 {
		return invalid("best-of counters cannot be negative")
	}
	if r.ZeroMax > r.TwoMax {
		return invalid(fmt.Sprintf("hcp zero max (%.1f) is above two max (%.1f)", r.ZeroMax, r.TwoMax))
	}
	if r.TwoMax >= r.FourMin {
		return invalid(fmt.Sprintf("hcp two max (%.1f) must be below four min (%.1f)", r.TwoMax, r.FourMin))
	}
	if n := len(r.FinalStartScores); n != 0 && n != FinalOffsetSlots {
		return invalid(fmt.Sprintf("final start scores need %d values, got %d", FinalOffsetSlots, n))
	}
	return nil
}

// BandingStrokes maps a handicap to the 0/2/4 stroke allowance.
//
// The four-min check gates the two-stroke band even when the thresholds overlap, so a
// row stored with two_max >= four_min keeps its historical behaviour.
func BandingStrokes(hcp float64, r Rules) int {
	if hcp <= r.ZeroMax {
		return 0
	}
	if hcp <= r.TwoMax && hcp < r.FourMin {
		return 2
	}
	return 4
}
