package scoring

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/trentd187/league-scoring/internal/models"
)

// Member is one season roster entry as the aggregator sees it.
type Member struct {
	SeasonPlayerID uuid.UUID
	PersonID       uuid.UUID
	Name           string
	AvatarURL      *string
}

// ScoredResult is one persisted result reduced to what aggregation needs.
type ScoredResult struct {
	SeasonPlayerID uuid.UUID
	EventID        uuid.UUID
	Category       models.Category
	Locked         bool
	DidNotPlay     bool
	Points         int
}

// Standing is one row of the season leaderboard.
type Standing struct {
	Position       int // 1-based position in the sorted list
	SeasonPlayerID uuid.UUID
	PersonID       uuid.UUID
	Name           string
	AvatarURL      *string
	Total          int
	ByCategory     map[models.Category]int // counted (best-of-N) points per category
	Played         int                     // locked events played, excluded categories left out
}

// SumTopN adds up the n largest values.
func SumTopN(values []int, n int) int {
	if n <= 0 || len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	if n > len(sorted) {
		n = len(sorted)
	}
	total := 0
	for _, v := range sorted[:n] {
		total += v
	}
	return total
}

// Aggregate computes the season standings: for every member, the best-N points of each
// category over locked events, summed. Results from unlocked events, did-not-play rows,
// the Final and any excluded category never count. Sorted by total descending, then by
// name for a stable display order.
func Aggregate(members []Member, results []ScoredResult, rules Rules, exclude ...models.Category) []Standing {
	skip := map[models.Category]bool{models.CategoryFinal: true}
	for _, c := range exclude {
		skip[c] = true
	}

	buckets := make(map[uuid.UUID]map[models.Category][]int, len(members))
	for _, m := range members {
		buckets[m.SeasonPlayerID] = make(map[models.Category][]int)
	}
	for _, r := range results {
		if !r.Locked || r.DidNotPlay || skip[r.Category] {
			continue
		}
		b, ok := buckets[r.SeasonPlayerID]
		if !ok {
			continue
		}
		b[r.Category] = append(b[r.Category], r.Points)
	}

	standings := make([]Standing, 0, len(members))
	for _, m := range members {
		s := Standing{
			SeasonPlayerID: m.SeasonPlayerID,
			PersonID:       m.PersonID,
			Name:           m.Name,
			AvatarURL:      m.AvatarURL,
			ByCategory:     make(map[models.Category]int),
		}
		for c, pts := range buckets[m.SeasonPlayerID] {
			counted := SumTopN(pts, rules.BestOf(c))
			s.ByCategory[c] = counted
			s.Total += counted
			s.Played += len(pts)
		}
		standings = append(standings, s)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total > standings[j].Total
		}
		return strings.ToLower(standings[i].Name) < strings.ToLower(standings[j].Name)
	})
	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}
