package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/league-scoring/internal/models"
)

func outcomeFor(t *testing.T, outcomes []Outcome, id uuid.UUID) Outcome {
	t.Helper()
	for _, o := range outcomes {
		if o.SeasonPlayerID == id {
			return o
		}
	}
	t.Fatalf("no outcome for %s", id)
	return Outcome{}
}

func regularInput(entries ...Entry) Input {
	return Input{
		Category:  models.CategoryRegular,
		Rules:     DefaultRules(),
		Points:    NewPointsTable(models.CategoryRegular, nil),
		Handicaps: map[uuid.UUID]float64{},
		Entries:   entries,
	}
}

func TestCompute_RoundTripScenario(t *testing.T) {
	p := uuid.New()
	in := regularInput(Entry{SeasonPlayerID: p, GrossStrokes: intp(80)})
	in.Handicaps[p] = 8

	out, err := Compute(in)
	require.NoError(t, err)

	o := outcomeFor(t, out, p)
	assert.Equal(t, 0, o.HcpStrokes)
	require.NotNil(t, o.NetStrokes)
	assert.Equal(t, 80, *o.NetStrokes)
	require.NotNil(t, o.Placing)
	assert.Equal(t, 1, *o.Placing)
	assert.Equal(t, 2000, o.Points)
	assert.Nil(t, o.AdjustedScore)
}

func TestCompute_TieScenario(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	in := regularInput(
		Entry{SeasonPlayerID: a, GrossStrokes: intp(74)},
		Entry{SeasonPlayerID: b, GrossStrokes: intp(76)},
		Entry{SeasonPlayerID: c, GrossStrokes: intp(75)},
	)
	in.Handicaps[a] = 12 // 2 strokes -> 72
	in.Handicaps[b] = 20 // 4 strokes -> 72
	in.Handicaps[c] = 3  // 0 strokes -> 75

	out, err := Compute(in)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{a, b} {
		o := outcomeFor(t, out, id)
		assert.Equal(t, 72, *o.NetStrokes)
		assert.Equal(t, 1, *o.Placing)
		assert.Equal(t, in.Points.For(1), o.Points)
	}
	oc := outcomeFor(t, out, c)
	assert.Equal(t, 3, *oc.Placing)
	assert.Equal(t, in.Points.For(3), oc.Points)
}

func TestCompute_ExcludedEntries(t *testing.T) {
	played, dns, noScore := uuid.New(), uuid.New(), uuid.New()
	in := regularInput(
		Entry{SeasonPlayerID: played, GrossStrokes: intp(78)},
		Entry{SeasonPlayerID: dns, GrossStrokes: intp(70), DidNotPlay: true},
		Entry{SeasonPlayerID: noScore},
	)

	out, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, 1, *outcomeFor(t, out, played).Placing)
	for _, id := range []uuid.UUID{dns, noScore} {
		o := outcomeFor(t, out, id)
		assert.Nil(t, o.Placing)
		assert.Zero(t, o.Points)
	}
	assert.True(t, outcomeFor(t, out, dns).DidNotPlay)
}

func TestCompute_NetNeverNegative(t *testing.T) {
	p := uuid.New()
	in := regularInput(Entry{SeasonPlayerID: p, GrossStrokes: intp(2)})
	in.Handicaps[p] = 30

	out, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 0, *outcomeFor(t, out, p).NetStrokes)
}

func TestCompute_OverrideResolvesTie(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	in := regularInput(
		Entry{SeasonPlayerID: a, GrossStrokes: intp(70)},
		Entry{SeasonPlayerID: b, GrossStrokes: intp(70), OverridePlacing: intp(1)},
		Entry{SeasonPlayerID: c, GrossStrokes: intp(70)},
	)

	out, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 1, *outcomeFor(t, out, b).Placing)
	assert.Equal(t, 2, *outcomeFor(t, out, a).Placing)
	assert.Equal(t, 2, *outcomeFor(t, out, c).Placing)
	assert.Equal(t, 1200, outcomeFor(t, out, a).Points)
}

func TestCompute_Final(t *testing.T) {
	leader, second, unseeded := uuid.New(), uuid.New(), uuid.New()
	in := Input{
		Category:  models.CategoryFinal,
		Rules:     DefaultRules(),
		Points:    NewPointsTable(models.CategoryFinal, nil),
		Handicaps: map[uuid.UUID]float64{leader: 5, second: 18, unseeded: 0},
		Seeds:     map[uuid.UUID]int{leader: -10, second: -8},
		Entries: []Entry{
			{SeasonPlayerID: leader, GrossStrokes: intp(80)},
			{SeasonPlayerID: second, GrossStrokes: intp(77)},
			{SeasonPlayerID: unseeded, GrossStrokes: intp(60)},
		},
	}

	out, err := Compute(in)
	require.NoError(t, err)

	l := outcomeFor(t, out, leader)
	assert.Equal(t, 70, *l.AdjustedScore) // 80 - 0 - 10
	assert.Nil(t, l.NetStrokes)

	s := outcomeFor(t, out, second)
	assert.Equal(t, 4, s.HcpStrokes)
	assert.Equal(t, 65, *s.AdjustedScore) // 77 - 4 - 8
	assert.Equal(t, 1, *s.Placing)
	assert.Equal(t, 2, *l.Placing)
	assert.Zero(t, s.Points, "final fallback table is all zero")

	u := outcomeFor(t, out, unseeded)
	assert.Nil(t, u.Placing, "players without a seed are not in the Final field")
	assert.Nil(t, u.AdjustedScore)
}

func TestCompute_TeamScenario(t *testing.T) {
	a1, a2, b1 := uuid.New(), uuid.New(), uuid.New()
	in := Input{
		Category:  models.CategoryTeam,
		Rules:     DefaultRules(),
		Points:    NewPointsTable(models.CategoryTeam, nil),
		Handicaps: map[uuid.UUID]float64{a1: 25, a2: 25, b1: 25},
		Entries: []Entry{
			{SeasonPlayerID: a1, TeamNumber: intp(1), TeamScore: intp(140)},
			{SeasonPlayerID: a2, TeamNumber: intp(1), TeamScore: intp(140)},
			{SeasonPlayerID: b1, TeamNumber: intp(2), TeamScore: intp(135)},
		},
	}

	out, err := Compute(in)
	require.NoError(t, err)

	b := outcomeFor(t, out, b1)
	assert.Equal(t, 1, *b.Placing)
	assert.Equal(t, in.Points.For(1), b.Points)
	assert.Zero(t, b.HcpStrokes, "team events skip banding")
	assert.Nil(t, b.NetStrokes)

	for _, id := range []uuid.UUID{a1, a2} {
		o := outcomeFor(t, out, id)
		assert.Equal(t, 2, *o.Placing)
		assert.Equal(t, 1200, o.Points)
		assert.Equal(t, 140, *o.TeamScore)
	}
}

func TestCompute_Validation(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tests := []struct {
		name    string
		in      Input
		wantMsg string
	}{
		{
			name:    "unknown category",
			in:      Input{Category: "scramble"},
			wantMsg: `unknown event category "scramble"`,
		},
		{
			name: "duplicate player",
			in: regularInput(
				Entry{SeasonPlayerID: a, GrossStrokes: intp(70)},
				Entry{SeasonPlayerID: a, GrossStrokes: intp(71)},
			),
			wantMsg: "listed more than once",
		},
		{
			name: "team without score",
			in: Input{Category: models.CategoryTeam, Entries: []Entry{
				{SeasonPlayerID: a, TeamNumber: intp(3)},
			}},
			wantMsg: "team 3: team score is required",
		},
		{
			name: "player on two teams",
			in: Input{Category: models.CategoryTeam, Entries: []Entry{
				{SeasonPlayerID: a, TeamNumber: intp(1), TeamScore: intp(140)},
				{SeasonPlayerID: a, TeamNumber: intp(2), TeamScore: intp(138)},
			}},
			wantMsg: "more than one team",
		},
		{
			name: "team members disagree on score",
			in: Input{Category: models.CategoryTeam, Entries: []Entry{
				{SeasonPlayerID: a, TeamNumber: intp(1), TeamScore: intp(140)},
				{SeasonPlayerID: b, TeamNumber: intp(1), TeamScore: intp(139)},
			}},
			wantMsg: "different team scores",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Reason, tt.wantMsg)
		})
	}
}

func TestCompute_Idempotent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	in := regularInput(
		Entry{SeasonPlayerID: a, GrossStrokes: intp(72)},
		Entry{SeasonPlayerID: b, GrossStrokes: intp(72)},
	)
	first, err := Compute(in)
	require.NoError(t, err)
	second, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
