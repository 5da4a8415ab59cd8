package league

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/scoring"
	"github.com/trentd187/league-scoring/internal/store"
)

func floatp(v float64) *float64 { return &v }

func TestCreateSeason_DefaultsAndCopy(t *testing.T) {
	f := newFixture(t)
	f.player("Ann", 7.5)
	f.player("Bo", 18)

	_, err := f.svc.SaveRules(f.ctx, f.season.ID, RulesInput{RegularBestOf: intp(6), HcpZeroMax: floatp(9)})
	require.NoError(t, err)
	require.NoError(t, f.svc.SavePointsTable(f.ctx, f.season.ID, models.CategoryMajor, map[int]int{1: 90, 2: 45}))

	next, err := f.svc.CreateSeason(f.ctx, CreateSeasonInput{
		Name:        "2027",
		CopyFrom:    &f.season.ID,
		CopyRules:   true,
		CopyPoints:  true,
		CopyPlayers: true,
	})
	require.NoError(t, err)

	rules, err := f.store.Rules(f.ctx, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, *rules.RegularBestOf)
	assert.Equal(t, 9.0, *rules.HcpZeroMax)

	points, err := f.svc.PointsTable(f.ctx, next.ID, models.CategoryMajor, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{90, 45, 1520}, points, "copied rows first, then the built-in table")

	players, err := f.store.SeasonPlayers(f.ctx, next.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)

	blank, err := f.svc.CreateSeason(f.ctx, CreateSeasonInput{Name: "Blank"})
	require.NoError(t, err)
	blankRules, err := f.store.Rules(f.ctx, blank.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultRegularBestOf, *blankRules.RegularBestOf)
	assert.Nil(t, blankRules.HcpZeroMax)

	_, err = f.svc.CreateSeason(f.ctx, CreateSeasonInput{Name: " "})
	var invalid *scoring.ValidationError
	assert.ErrorAs(t, err, &invalid)

	missing := uuid.New()
	_, err = f.svc.CreateSeason(f.ctx, CreateSeasonInput{Name: "X", CopyFrom: &missing})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveRules_RejectsInvertedThresholds(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SaveRules(f.ctx, f.season.ID, RulesInput{HcpTwoMax: floatp(16), HcpFourMin: floatp(15.6)})
	var invalid *scoring.ValidationError
	require.ErrorAs(t, err, &invalid)

	_, err = f.svc.SaveRules(f.ctx, f.season.ID, RulesInput{FinalStartScores: []int{-3, -2}})
	require.ErrorAs(t, err, &invalid)

	resolved, err := f.svc.SaveRules(f.ctx, f.season.ID, RulesInput{HcpTwoMax: floatp(14), FinalStartScores: []int{-9, -7, -5, -4, -3, -2, -1, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 14.0, resolved.TwoMax)
	assert.Equal(t, scoring.DefaultHcpFourMin, resolved.FourMin)
	assert.Equal(t, 1, resolved.FinalStartForRank(12))

	_, err = f.svc.SaveRules(f.ctx, uuid.New(), RulesInput{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRulesAffectBanding(t *testing.T) {
	f := newFixture(t)
	a := f.player("A", 9)
	_, err := f.svc.SaveRules(f.ctx, f.season.ID, RulesInput{HcpZeroMax: floatp(8)})
	require.NoError(t, err)
	event := f.event(models.CategoryRegular)

	_, err = f.svc.ComputeEvent(f.ctx, event.ID, SaveRequest{Entries: []scoring.Entry{gross(a, 80)}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.results(event.ID)[a].HcpStrokes)
}

func TestSavePointsTable_Validation(t *testing.T) {
	f := newFixture(t)
	var invalid *scoring.ValidationError

	assert.ErrorAs(t, f.svc.SavePointsTable(f.ctx, f.season.ID, "cup", map[int]int{1: 1}), &invalid)
	assert.ErrorAs(t, f.svc.SavePointsTable(f.ctx, f.season.ID, models.CategoryRegular, map[int]int{0: 1}), &invalid)
	assert.ErrorAs(t, f.svc.SavePointsTable(f.ctx, f.season.ID, models.CategoryRegular, map[int]int{1: -5}), &invalid)
	assert.ErrorIs(t, f.svc.SavePointsTable(f.ctx, uuid.New(), models.CategoryRegular, map[int]int{1: 5}), store.ErrNotFound)
}

func TestCurrentSeason(t *testing.T) {
	f := newFixture(t)
	next, err := f.svc.CreateSeason(f.ctx, CreateSeasonInput{Name: "2027"})
	require.NoError(t, err)

	current, err := f.svc.CurrentSeason(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, current.ID, "latest season when none is flagged")

	require.NoError(t, f.svc.SetCurrentSeason(f.ctx, f.season.ID))
	current, err = f.svc.CurrentSeason(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.season.ID, current.ID)
}

func TestCopyPreviousRoster(t *testing.T) {
	f := newFixture(t)
	f.player("Ann", 7.5)
	f.player("Bo", 18)

	next, err := f.svc.CreateSeason(f.ctx, CreateSeasonInput{Name: "2027"})
	require.NoError(t, err)

	// Bo is already enrolled with a new handicap; it must survive the copy.
	prev, err := f.store.SeasonPlayers(f.ctx, f.season.ID)
	require.NoError(t, err)
	var bo models.SeasonPlayer
	for _, p := range prev {
		if p.Person.Name == "Bo" {
			bo = p
		}
	}
	require.NoError(t, f.store.InsertSeasonPlayers(f.ctx, []models.SeasonPlayer{{SeasonID: next.ID, PersonID: bo.PersonID, Hcp: 12}}))

	added, err := f.svc.CopyPreviousRoster(f.ctx, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = f.svc.CopyPreviousRoster(f.ctx, next.ID)
	require.NoError(t, err)
	assert.Zero(t, added)

	roster, err := f.store.SeasonPlayers(f.ctx, next.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	for _, p := range roster {
		if p.PersonID == bo.PersonID {
			assert.InDelta(t, 12, p.Hcp, 0.001)
		} else {
			assert.InDelta(t, 7.5, p.Hcp, 0.001)
		}
	}

	added, err = f.svc.CopyPreviousRoster(f.ctx, f.season.ID)
	require.NoError(t, err)
	assert.Zero(t, added, "the first season has nothing to copy from")
}

func TestUpdateHandicap(t *testing.T) {
	f := newFixture(t)
	a := f.player("A", 10)
	var invalid *scoring.ValidationError

	assert.ErrorAs(t, f.svc.UpdateHandicap(f.ctx, a, -1), &invalid)
	require.NoError(t, f.svc.UpdateHandicap(f.ctx, a, 16))
	assert.ErrorIs(t, f.svc.UpdateHandicap(f.ctx, uuid.New(), 3), store.ErrNotFound)

	event := f.event(models.CategoryRegular)
	_, err := f.svc.ComputeEvent(f.ctx, event.ID, SaveRequest{Entries: []scoring.Entry{gross(a, 80)}})
	require.NoError(t, err)
	assert.Equal(t, 4, f.results(event.ID)[a].HcpStrokes)
}

func TestStandings(t *testing.T) {
	f := newFixture(t)
	a, b := f.player("Ann", 0), f.player("Bo", 0)
	regular, team := f.event(models.CategoryRegular), f.event(models.CategoryTeam)

	_, err := f.svc.ComputeEvent(f.ctx, regular.ID, SaveRequest{Entries: []scoring.Entry{gross(a, 70), gross(b, 71)}, Lock: true})
	require.NoError(t, err)
	lock := true
	_, err = f.svc.SaveTeams(f.ctx, team.ID, TeamSaveRequest{Teams: []scoring.TeamSheet{
		{Number: 1, PlayerA: &b, Score: intp(130)},
		{Number: 2, PlayerA: &a, Score: intp(131)},
	}, Lock: &lock})
	require.NoError(t, err)

	standings, err := f.svc.Standings(f.ctx, f.season.ID)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "Ann", standings[0].Name, "equal totals sort by name")
	assert.Equal(t, 3200, standings[0].Total)
	assert.Equal(t, 3200, standings[1].Total)
	assert.Equal(t, 1200, standings[1].ByCategory[models.CategoryRegular])

	withoutTeam, err := f.svc.Standings(f.ctx, f.season.ID, models.CategoryTeam)
	require.NoError(t, err)
	assert.Equal(t, 2000, withoutTeam[0].Total)
	assert.Equal(t, 1200, withoutTeam[1].Total)

	_, err = f.svc.Standings(f.ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
