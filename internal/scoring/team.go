package scoring

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MaxTeamSize is the number of players a team event pairs up.
const MaxTeamSize = 2

// Team is rebuilt in memory from the flat per-player entries of a team event.
type Team struct {
	Number   int
	Score    int
	Members  []uuid.UUID
	Override *int
}

// TeamSheet is how the admin enters a team event: one row per team with up to two
// players and the team's gross score.
type TeamSheet struct {
	Number  int
	PlayerA *uuid.UUID
	PlayerB *uuid.UUID
	Score   *int
}

// EntriesFromTeams flattens team sheets into per-player entries. Sheets without players
// are skipped; a sheet with players must carry a score.
func EntriesFromTeams(sheets []TeamSheet) ([]Entry, error) {
	var entries []Entry
	for _, s := range sheets {
		var members []uuid.UUID
		for _, p := range []*uuid.UUID{s.PlayerA, s.PlayerB} {
			if p != nil && *p != uuid.Nil {
				members = append(members, *p)
			}
		}
		if len(members) == 0 {
			continue
		}
		if s.Score == nil {
			return nil, invalid(fmt.Sprintf("team %d: team score is required", s.Number))
		}
		if len(members) == 2 && members[0] == members[1] {
			return nil, invalid(fmt.Sprintf("team %d: the same player is selected twice", s.Number))
		}
		for _, id := range members {
			number, score := s.Number, *s.Score
			entries = append(entries, Entry{
				SeasonPlayerID: id,
				TeamNumber:     &number,
				TeamScore:      &score,
			})
		}
	}
	return entries, nil
}

// BuildTeams groups team-event entries by team number. Entries that did not play or
// carry no team number are not part of any team.
func BuildTeams(entries []Entry) ([]Team, error) {
	var teams []Team
	index := make(map[int]int)          // team number -> position in teams
	memberOf := make(map[uuid.UUID]int) // player -> team number

	for _, e := range entries {
		if e.DidNotPlay || e.TeamNumber == nil {
			continue
		}
		number := *e.TeamNumber
		if e.TeamScore == nil {
			return nil, invalid(fmt.Sprintf("team %d: team score is required", number))
		}

		if prev, ok := memberOf[e.SeasonPlayerID]; ok {
			if prev == number {
				return nil, invalid(fmt.Sprintf("team %d: the same player is selected twice", number))
			}
			return nil, invalid(fmt.Sprintf("player %s is on more than one team (%d and %d)", e.SeasonPlayerID, prev, number))
		}

		pos, ok := index[number]
		if !ok {
			pos = len(teams)
			index[number] = pos
			teams = append(teams, Team{Number: number, Score: *e.TeamScore})
		}
		t := &teams[pos]
		if t.Score != *e.TeamScore {
			return nil, invalid(fmt.Sprintf("team %d: members report different team scores (%d and %d)", number, t.Score, *e.TeamScore))
		}
		if len(t.Members) == MaxTeamSize {
			return nil, invalid(fmt.Sprintf("team %d has more than %d players", number, MaxTeamSize))
		}
		t.Members = append(t.Members, e.SeasonPlayerID)
		memberOf[e.SeasonPlayerID] = number

		if e.OverridePlacing != nil && *e.OverridePlacing > 0 {
			if t.Override == nil || *e.OverridePlacing < *t.Override {
				ov := *e.OverridePlacing
				t.Override = &ov
			}
		}
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].Number < teams[j].Number })
	return teams, nil
}
