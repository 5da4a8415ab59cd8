// Package export renders season standings for people outside the app (a spreadsheet,
// YAML or JSON) and reads score sheets filled in on the course back into entries.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/scoring"
)

// StandingRow is the flat, serialisable form of a standing.
type StandingRow struct {
	Position int    `json:"position" yaml:"position"`
	Name     string `json:"name" yaml:"name"`
	Total    int    `json:"total" yaml:"total"`
	Regular  int    `json:"regular" yaml:"regular"`
	Major    int    `json:"major" yaml:"major"`
	Team     int    `json:"team" yaml:"team"`
	Played   int    `json:"played" yaml:"played"`
}

// Rows flattens standings.
func Rows(standings []scoring.Standing) []StandingRow {
	rows := make([]StandingRow, 0, len(standings))
	for _, s := range standings {
		rows = append(rows, StandingRow{
			Position: s.Position,
			Name:     s.Name,
			Total:    s.Total,
			Regular:  s.ByCategory[models.CategoryRegular],
			Major:    s.ByCategory[models.CategoryMajor],
			Team:     s.ByCategory[models.CategoryTeam],
			Played:   s.Played,
		})
	}
	return rows
}

// WriteJSON writes the standings as an indented JSON array.
func WriteJSON(w io.Writer, standings []scoring.Standing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Rows(standings))
}

// WriteYAML writes the standings as a YAML sequence.
func WriteYAML(w io.Writer, standings []scoring.Standing) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Rows(standings)); err != nil {
		return err
	}
	return enc.Close()
}

var standingsHeader = []any{"Pos", "Player", "Total", "Regular", "Major", "Team", "Played"}

// WriteXLSX writes the standings as a one-sheet workbook named after the season.
func WriteXLSX(w io.Writer, season string, standings []scoring.Standing) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(season)
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &standingsHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range Rows(standings) {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Position, r.Name, r.Total, r.Regular, r.Major, r.Team, r.Played}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 24); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// sheetName trims a season name to what Excel accepts as a sheet name.
func sheetName(season string) string {
	name := []rune(season)
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return "Standings"
	}
	if len(out) > 31 {
		out = out[:31]
	}
	return string(out)
}
