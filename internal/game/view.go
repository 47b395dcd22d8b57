package game

import (
	"math"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/geo"
)

// GuessView is a guess as presented to a front end.
type GuessView struct {
	Name       string        `json:"name"`
	Code       string        `json:"code"`
	DistanceKm int           `json:"distanceKm"`
	Tier       Tier          `json:"tier"`
	Label      string        `json:"label"`
	Message    string        `json:"message"`
	Color      string        `json:"color"`
	Direction  geo.Direction `json:"direction,omitempty"`
	Arrow      string        `json:"arrow,omitempty"`
}

// RoundView is the read-only snapshot of a round. The target is only
// present once the round is over.
type RoundView struct {
	ID         string             `json:"id"`
	Mode       Mode               `json:"mode"`
	Status     Status             `json:"status"`
	Finished   bool               `json:"finished"`
	Won        bool               `json:"won"`
	GuessCount int                `json:"guessCount"`
	Guesses    []GuessView        `json:"guesses"`
	Target     *countries.Country `json:"target,omitempty"`
}

// Snapshot returns the presentation view of r.
func (r *Round) Snapshot() RoundView {
	v := RoundView{
		ID:         r.ID,
		Mode:       r.Mode,
		Status:     r.Status,
		Finished:   r.Finished(),
		Won:        r.Won(),
		GuessCount: len(r.Guesses),
		Guesses:    make([]GuessView, 0, len(r.Guesses)),
	}
	for _, g := range r.Guesses {
		v.Guesses = append(v.Guesses, g.View())
	}
	if r.Finished() {
		t := r.Target
		v.Target = &t
	}
	return v
}

// View converts g for presentation. Distances are rounded to whole km, and
// only the correct guess shows 0.
func (g Guess) View() GuessView {
	info := g.Tier.Info()
	km := int(math.Round(g.Distance))
	if km < 1 && g.Tier != TierCorrect {
		km = 1
	}
	return GuessView{
		Name:       g.Country.Name,
		Code:       g.Country.Code,
		DistanceKm: km,
		Tier:       g.Tier,
		Label:      info.Label,
		Message:    info.Message,
		Color:      info.Color,
		Direction:  g.Direction,
		Arrow:      g.Direction.Arrow(),
	}
}
