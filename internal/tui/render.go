package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/geoguess/internal/game"
)

var (
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleSelect = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
)

// tierStyle colors a guess by its feedback tier.
func tierStyle(g game.GuessView) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.GetColor(g.Color))
}

// Renderer draws game state onto a Screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a renderer for screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// frame is everything one redraw needs.
type frame struct {
	title       string
	round       game.RoundView
	session     *game.SessionView
	input       string
	suggestions []string
	selected    int
	status      string
	statusErr   bool
	help        string
}

// Render redraws the whole screen from f.
func (r *Renderer) Render(f frame) {
	s := r.screen
	s.Clear()
	_, h := s.Size()

	y := 0
	s.Text(0, y, f.title, styleTitle)
	y += 2

	if f.session != nil {
		line := fmt.Sprintf("Round %d/%d   Wins %d   Avg guesses %.1f", f.session.RoundNumber, f.session.Total, f.session.Wins, f.session.AverageGuesses)
		s.Text(0, y, line, styleDim)
		y += 2
	}

	switch {
	case f.round.Won:
		s.Text(0, y, fmt.Sprintf("Found %s in %d guesses!", f.round.Target.Name, f.round.GuessCount), tierStyle(f.round.Guesses[0]))
	case f.round.Finished && f.round.Target != nil:
		s.Text(0, y, "The answer was "+f.round.Target.Name, styleError)
	default:
		s.Text(0, y, fmt.Sprintf("Guess the country (%d guesses so far)", f.round.GuessCount), styleText)
	}
	y += 2

	// Input line and suggestions.
	x := s.Text(0, y, "> ", styleText)
	end := s.Text(x, y, f.input, styleText)
	if f.round.Finished {
		s.ShowCursor(-1, -1)
	} else {
		s.ShowCursor(end, y)
	}
	for i, name := range f.suggestions {
		st := styleDim
		if i == f.selected {
			st = styleSelect
		}
		x = s.Text(x, y+1, name, st)
		x = s.Text(x, y+1, "  ", styleDim)
	}
	y += 3

	for _, g := range f.round.Guesses {
		if y >= h-2 {
			break
		}
		x := s.Text(0, y, fmt.Sprintf("%-28s", g.Name), styleText)
		x = s.Text(x, y, fmt.Sprintf("%7d km ", g.DistanceKm), styleText)
		x = s.Text(x, y, fmt.Sprintf("%-2s %-4s ", g.Arrow, g.Direction), styleText)
		s.Text(x, y, g.Label+"  "+g.Message, tierStyle(g))
		y++
	}

	if f.status != "" {
		st := styleText
		if f.statusErr {
			st = styleError
		}
		s.Text(0, h-2, f.status, st)
	}
	s.Text(0, h-1, f.help, styleDim)
	s.Show()
}
