package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/game"
)

func TestWriteSession(t *testing.T) {
	v := game.SessionView{
		ID:    "s1",
		Total: 3,
		Results: []game.RoundSummary{
			{Round: 1, Target: countries.Country{Name: "France", Code: "FR"}, Guesses: 2, Won: true},
			{Round: 2, Target: countries.Country{Name: "Peru", Code: "PE"}},
		},
		Wins:           1,
		AverageGuesses: 2,
	}

	var buf bytes.Buffer
	if err := WriteSession(&buf, v); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(roundsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("Rounds sheet has %d rows, want 3", len(rows))
	}
	if rows[1][1] != "France" || rows[1][4] != "won" || rows[2][4] != "skipped" {
		t.Errorf("Rounds rows = %v", rows)
	}

	wins, err := f.GetCellValue(summarySheet, "B4")
	if err != nil || wins != "1" {
		t.Errorf("Summary wins = %q, %v; want 1", wins, err)
	}
}
