package scoring

import "sort"

// noOverride sorts entries without a manual override last inside their tie group.
const noOverride = 999

// Contender is one rankable entry: a player or a team. Lower Score is better.
// Override is the manually entered intra-tie ordinal (a playoff result), if any.
type Contender[K comparable] struct {
	Key      K
	Score    int
	Override *int
}

func (c Contender[K]) overrideRank() int {
	if c.Override != nil && *c.Override > 0 {
		return *c.Override
	}
	return noOverride
}

// Place assigns competition-style placings (1, 2, 2, 4, ...) to the contenders.
//
// Entries sharing a score form a tie group. Inside a group an entry's rank is its
// override when positive, otherwise one past the largest override in the group, so
// players who don't claim a sub-rank fall in right behind those who do. The placing
// is the group's starting position plus that rank minus one, and the next group
// starts after all members of this one.
func Place[K comparable](contenders []Contender[K]) map[K]int {
	sorted := make([]Contender[K], len(contenders))
	copy(sorted, contenders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score < sorted[j].Score
		}
		return sorted[i].overrideRank() < sorted[j].overrideRank()
	})

	placings := make(map[K]int, len(sorted))
	groupStart := 1
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Score == sorted[i].Score {
			j++
		}
		group := sorted[i:j]

		maxOverride := 0
		for _, c := range group {
			if c.Override != nil && *c.Override > maxOverride {
				maxOverride = *c.Override
			}
		}

		for _, c := range group {
			within := maxOverride + 1
			if c.Override != nil && *c.Override > 0 {
				within = *c.Override
			}
			placings[c.Key] = groupStart + within - 1
		}

		groupStart += len(group)
		i = j
	}
	return placings
}
