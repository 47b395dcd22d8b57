// internal/game/types.go
//
// Core type definitions for the round/session state machine.
// Defines:
//   - Mode:   how a round's target was chosen (random, daily, practice).
//   - Status: lifecycle of a round.
//   - Guess:  one evaluated guess.
//   - Round:  the serializable state of a single round.

package game

import (
	"time"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/geo"
)

// Mode is the target-selection flavour of a round.
type Mode string

const (
	ModeRandom   Mode = "random"
	ModeDaily    Mode = "daily"
	ModePractice Mode = "practice"
)

// Status is the lifecycle state of a round.
//
//	not_started → in_progress → won
//	              in_progress → lost (practice skip)
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether s is won or lost.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Guess is the evaluation of one guessed country against the target.
type Guess struct {
	Country   countries.Country `json:"country"`
	Distance  float64           `json:"distanceKm"`
	Direction geo.Direction     `json:"direction,omitempty"` // empty on the correct guess
	Tier      Tier              `json:"tier"`
}

// Round holds the state of a single round. It is a plain value: everything
// needed to resume it round-trips through JSON.
type Round struct {
	ID         string            `json:"id"`
	Mode       Mode              `json:"mode"`
	Status     Status            `json:"status"`
	Target     countries.Country `json:"target"`
	Guesses    []Guess           `json:"guesses"` // most recent first
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
}
