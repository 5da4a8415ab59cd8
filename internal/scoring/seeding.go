package scoring

import "github.com/google/uuid"

const (
	// FinalFieldSize is how many players qualify for the Final.
	FinalFieldSize = 12
	// FinalOffsetSlots is the length of the start-score array: eight individual
	// ranks plus one overflow value for ranks 9..12.
	FinalOffsetSlots = 9
)

// Seed is a qualified player's starting offset for the Final.
type Seed struct {
	SeasonPlayerID uuid.UUID
	Rank           int
	StartScore     int
}

// FinalStartForRank returns the configured offset for a standings rank. Ranks 1..8 use
// their own slot, every later rank uses the ninth. Missing slots fall back to the
// defaults.
func (r Rules) FinalStartForRank(rank int) int {
	offsets := r.FinalStartScores
	if len(offsets) == 0 {
		offsets = DefaultFinalStartScores
	}
	slot := min(rank, FinalOffsetSlots) - 1
	if slot < 0 {
		return 0
	}
	if slot < len(offsets) {
		return offsets[slot]
	}
	return DefaultFinalStartScores[slot]
}

// SeedFinal takes the top FinalFieldSize standings (already sorted) and assigns each
// their start offset. Players below the cut get no seed.
func SeedFinal(standings []Standing, rules Rules) []Seed {
	n := min(len(standings), FinalFieldSize)
	seeds := make([]Seed, 0, n)
	for i := 0; i < n; i++ {
		rank := i + 1
		seeds = append(seeds, Seed{
			SeasonPlayerID: standings[i].SeasonPlayerID,
			Rank:           rank,
			StartScore:     rules.FinalStartForRank(rank),
		})
	}
	return seeds
}
