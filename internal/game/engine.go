// internal/game/engine.go
//
// Round state machine.
// Responsibilities:
//   - Start rounds with a target chosen by a Policy.
//   - Resolve, validate and score guesses with the geo package.
//   - Track state transitions: not_started → in_progress → won/lost.
//
// Notes:
//   - Every failing operation leaves the round untouched.
//   - A round is not safe for concurrent use; callers serialize access
//     (the HTTP layer does so through store.Update).
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/geoguess/internal/countries"
)

var (
	// ErrNotFound means the submitted name or code is not in the table.
	ErrNotFound = errors.New("country not found")
	// ErrDuplicateGuess means the country was already guessed this round.
	ErrDuplicateGuess = errors.New("country already guessed")
	// ErrInvalidOperation covers actions the current state does not allow.
	ErrInvalidOperation = errors.New("invalid operation")
)

// NewRound constructs a round that has not started yet.
func NewRound() *Round {
	return &Round{
		ID:      uuid.NewString(),
		Status:  StatusNotStarted,
		Guesses: []Guess{},
	}
}

// Start picks a target with p and (re)starts the round from scratch.
func (r *Round) Start(tbl *countries.Table, p Policy) error {
	target, err := p.Pick(tbl)
	if err != nil {
		return fmt.Errorf("pick target: %w", err)
	}
	r.Mode = p.Mode()
	r.Target = target
	r.Guesses = []Guess{}
	r.Status = StatusInProgress
	r.StartedAt = time.Now().UTC()
	r.FinishedAt = nil
	return nil
}

// Finished reports whether the round reached won or lost.
func (r *Round) Finished() bool { return r.Status.Terminal() }

// Won reports whether the target was found.
func (r *Round) Won() bool { return r.Status == StatusWon }

// SubmitName resolves name (case-insensitive, exact) and submits it.
func (r *Round) SubmitName(tbl *countries.Table, name string) (Guess, error) {
	if r.Status != StatusInProgress {
		return Guess{}, fmt.Errorf("%w: round is %s", ErrInvalidOperation, r.Status)
	}
	c, ok := tbl.ByName(name)
	if !ok {
		return Guess{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.Submit(c)
}

// SubmitCode resolves a code picked from a suggestion list and submits it.
func (r *Round) SubmitCode(tbl *countries.Table, code string) (Guess, error) {
	if r.Status != StatusInProgress {
		return Guess{}, fmt.Errorf("%w: round is %s", ErrInvalidOperation, r.Status)
	}
	c, ok := tbl.ByCode(code)
	if !ok {
		return Guess{}, fmt.Errorf("%w: code %q", ErrNotFound, code)
	}
	return r.Submit(c)
}

// Submit scores an already resolved country and records it.
//
// Validation rules:
//   - Round must be in progress.
//   - The country's code must not already be in the guess list.
//
// The guess is prepended. Guessing the target's code wins the round.
func (r *Round) Submit(c countries.Country) (Guess, error) {
	if r.Status != StatusInProgress {
		return Guess{}, fmt.Errorf("%w: round is %s", ErrInvalidOperation, r.Status)
	}
	for _, g := range r.Guesses {
		if g.Country.Code == c.Code {
			return Guess{}, fmt.Errorf("%w: %s", ErrDuplicateGuess, c.Name)
		}
	}

	g := evaluate(r.Target, c)
	r.Guesses = append([]Guess{g}, r.Guesses...)
	if g.Tier == TierCorrect {
		r.finish(StatusWon)
	}
	return g, nil
}

// Skip gives up on a practice round. No guess is recorded.
func (r *Round) Skip() error {
	if r.Mode != ModePractice {
		return fmt.Errorf("%w: skip is only available in practice mode", ErrInvalidOperation)
	}
	if r.Status != StatusInProgress {
		return fmt.Errorf("%w: round is %s", ErrInvalidOperation, r.Status)
	}
	r.finish(StatusLost)
	return nil
}

func (r *Round) finish(s Status) {
	now := time.Now().UTC()
	r.Status = s
	r.FinishedAt = &now
}

// evaluate scores guess against target. Distance is zero exactly when the
// codes match, even if two table rows happen to share coordinates.
func evaluate(target, guess countries.Country) Guess {
	if guess.Code == target.Code {
		return Guess{Country: guess, Distance: 0, Tier: TierCorrect}
	}
	from, to := guess.Point(), target.Point()
	d := from.DistanceTo(to)
	if d == 0 {
		d = minDistanceKm
	}
	return Guess{
		Country:   guess,
		Distance:  d,
		Direction: from.BearingTo(to),
		Tier:      FeedbackTier(d),
	}
}

// minDistanceKm stands in for a zero distance between different countries.
const minDistanceKm = 0.001
