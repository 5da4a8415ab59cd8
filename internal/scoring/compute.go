package scoring

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/trentd187/league-scoring/internal/models"
)

// Entry is the admin's input for one player in one event.
type Entry struct {
	SeasonPlayerID  uuid.UUID
	GrossStrokes    *int
	DidNotPlay      bool
	OverridePlacing *int
	TeamNumber      *int
	TeamScore       *int
}

// Input is everything Compute needs for one event.
type Input struct {
	Category  models.Category
	Rules     Rules
	Points    PointsTable
	Handicaps map[uuid.UUID]float64 // season player -> handicap
	Seeds     map[uuid.UUID]int     // Final only: season player -> start offset
	Entries   []Entry
}

// Outcome is the computed result for one entry, ready to be persisted.
type Outcome struct {
	SeasonPlayerID  uuid.UUID
	GrossStrokes    *int
	DidNotPlay      bool
	OverridePlacing *int
	TeamNumber      *int
	TeamScore       *int

	HcpStrokes    int
	NetStrokes    *int
	AdjustedScore *int
	Placing       *int
	Points        int
}

// Compute scores one event. Outcomes come back in entry order; entries that did not
// play, have no score, or (in a Final) have no seed keep a nil placing and zero points.
func Compute(in Input) ([]Outcome, error) {
	if !in.Category.Valid() {
		return nil, invalid(fmt.Sprintf("unknown event category %q", in.Category))
	}

	var teams []Team
	if in.Category == models.CategoryTeam {
		var err error
		if teams, err = BuildTeams(in.Entries); err != nil {
			return nil, err
		}
	}
	if err := checkDuplicates(in.Entries); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(in.Entries))
	for i, e := range in.Entries {
		outcomes[i] = Outcome{
			SeasonPlayerID:  e.SeasonPlayerID,
			GrossStrokes:    e.GrossStrokes,
			DidNotPlay:      e.DidNotPlay,
			OverridePlacing: e.OverridePlacing,
			TeamNumber:      e.TeamNumber,
			TeamScore:       e.TeamScore,
		}
	}

	if in.Category == models.CategoryTeam {
		placeTeams(in, teams, outcomes)
		return outcomes, nil
	}

	var contenders []Contender[uuid.UUID]
	for i := range outcomes {
		o := &outcomes[i]
		o.HcpStrokes = BandingStrokes(in.Handicaps[o.SeasonPlayerID], in.Rules)
		if o.GrossStrokes == nil {
			continue
		}
		gross := *o.GrossStrokes

		var score int
		if in.Category == models.CategoryFinal {
			start, seeded := in.Seeds[o.SeasonPlayerID]
			if !seeded {
				continue
			}
			adjusted := gross - o.HcpStrokes + start
			o.AdjustedScore = &adjusted
			score = adjusted
		} else {
			net := max(0, gross-o.HcpStrokes)
			o.NetStrokes = &net
			score = net
		}

		if o.DidNotPlay {
			continue
		}
		contenders = append(contenders, Contender[uuid.UUID]{
			Key:      o.SeasonPlayerID,
			Score:    score,
			Override: o.OverridePlacing,
		})
	}

	placings := Place(contenders)
	for i := range outcomes {
		o := &outcomes[i]
		if placing, ok := placings[o.SeasonPlayerID]; ok {
			p := placing
			o.Placing = &p
			o.Points = in.Points.For(placing)
		}
	}
	return outcomes, nil
}

// placeTeams ranks whole teams by team score and copies each team's placing and points
// onto every member. Banding does not apply to team events.
func placeTeams(in Input, teams []Team, outcomes []Outcome) {
	contenders := make([]Contender[int], 0, len(teams))
	for _, t := range teams {
		contenders = append(contenders, Contender[int]{Key: t.Number, Score: t.Score, Override: t.Override})
	}
	placings := Place(contenders)

	teamOf := make(map[uuid.UUID]int)
	for _, t := range teams {
		for _, m := range t.Members {
			teamOf[m] = t.Number
		}
	}

	for i := range outcomes {
		o := &outcomes[i]
		o.HcpStrokes = 0
		number, ok := teamOf[o.SeasonPlayerID]
		if !ok || o.DidNotPlay {
			continue
		}
		placing := placings[number]
		o.Placing = &placing
		o.Points = in.Points.For(placing)
	}
}

func checkDuplicates(entries []Entry) error {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		if e.SeasonPlayerID == uuid.Nil {
			return invalid("entry is missing a player")
		}
		if _, dup := seen[e.SeasonPlayerID]; dup {
			return invalid(fmt.Sprintf("player %s is listed more than once", e.SeasonPlayerID))
		}
		seen[e.SeasonPlayerID] = struct{}{}
	}
	return nil
}
