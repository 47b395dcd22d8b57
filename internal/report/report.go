// Package report exports practice sessions as spreadsheets.
package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/robalobadob/geoguess/internal/game"
)

const (
	roundsSheet  = "Rounds"
	summarySheet = "Summary"
)

// WriteSession writes v as an .xlsx workbook with a per-round sheet and a
// summary sheet.
func WriteSession(w io.Writer, v game.SessionView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", roundsSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(roundsSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []any{"Round", "Target", "Code", "Guesses", "Result"}); err != nil {
		return err
	}
	for i, r := range v.Results {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		result := "skipped"
		if r.Won {
			result = "won"
		}
		if err := sw.SetRow(cell, []any{r.Round, r.Target.Name, r.Target.Code, r.Guesses, result}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]any{
		{"Session", v.ID},
		{"Rounds played", len(v.Results)},
		{"Rounds total", v.Total},
		{"Wins", v.Wins},
		{"Average guesses (won rounds)", v.AverageGuesses},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
