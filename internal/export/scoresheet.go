package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/trentd187/league-scoring/internal/scoring"
)

// ReadScoreSheet reads a score sheet workbook into entries. The first sheet must have a
// header row with a "Player" column and a "Gross" column; optional "DNP" and "Override"
// columns set the did-not-play flag and the manual tie-break rank. Player names are
// matched case-insensitively against roster (name -> season player id).
func ReadScoreSheet(r io.Reader, roster map[string]uuid.UUID) ([]scoring.Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, ok := cols["player"]
	if !ok {
		return nil, fmt.Errorf("score sheet has no Player column")
	}
	grossCol, ok := cols["gross"]
	if !ok {
		return nil, fmt.Errorf("score sheet has no Gross column")
	}
	dnpCol, hasDNP := cols["dnp"]
	overrideCol, hasOverride := cols["override"]

	byName := make(map[string]uuid.UUID, len(roster))
	for name, id := range roster {
		byName[strings.ToLower(strings.TrimSpace(name))] = id
	}

	var entries []scoring.Entry
	for i, row := range rows[1:] {
		line := i + 2
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}
		id, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("row %d: %q is not on the roster", line, name)
		}

		e := scoring.Entry{SeasonPlayerID: id}
		if e.GrossStrokes, err = optionalInt(cell(row, grossCol)); err != nil {
			return nil, fmt.Errorf("row %d: gross: %w", line, err)
		}
		if hasDNP {
			e.DidNotPlay = truthy(cell(row, dnpCol))
		}
		if hasOverride {
			if e.OverridePlacing, err = optionalInt(cell(row, overrideCol)); err != nil {
				return nil, fmt.Errorf("row %d: override: %w", line, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a whole number", s)
	}
	return &v, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "yes", "y", "true", "1", "dnp":
		return true
	}
	return false
}
