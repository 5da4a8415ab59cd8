package scoring

import "github.com/trentd187/league-scoring/internal/models"

// Built-in points per placing, used whenever the season has no row for a placing.
var fallbackPoints = map[models.Category][]int{
	models.CategoryRegular: {2000, 1200, 760, 540, 440, 400, 360, 340, 320, 300, 280, 260},
	models.CategoryMajor:   {4000, 2400, 1520, 1080, 880, 800, 720, 680, 640, 600, 560, 520},
	models.CategoryTeam:    {2000, 1200, 760, 540, 440, 400},
	models.CategoryFinal:   make([]int, 12),
}

// FallbackPoints returns the built-in points for a placing, or 0 when out of range.
func FallbackPoints(c models.Category, placing int) int {
	table := fallbackPoints[c]
	if placing < 1 || placing > len(table) {
		return 0
	}
	return table[placing-1]
}

// PointsTable resolves points for one category of one season.
type PointsTable struct {
	Category   models.Category
	Configured map[int]int // placing -> points, from the season's points_table rows
}

// NewPointsTable builds a lookup from stored rows, keeping only the category's rows.
func NewPointsTable(c models.Category, rows []models.PointsRow) PointsTable {
	configured := make(map[int]int, len(rows))
	for _, r := range rows {
		if r.Category == c {
			configured[r.Placing] = r.Points
		}
	}
	return PointsTable{Category: c, Configured: configured}
}

// For returns the points awarded for a placing.
func (t PointsTable) For(placing int) int {
	if placing < 1 {
		return 0
	}
	if pts, ok := t.Configured[placing]; ok {
		return pts
	}
	return FallbackPoints(t.Category, placing)
}
