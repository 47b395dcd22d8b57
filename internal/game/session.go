// internal/game/session.go
//
// Practice sessions: a bounded run of practice rounds plus aggregate stats.
// A session never records more results than its configured round count.

package game

import (
	"errors"
	"fmt"
	mrand "math/rand/v2"

	"github.com/google/uuid"

	"github.com/robalobadob/geoguess/internal/countries"
)

// ErrSessionComplete means every round of the session has been played.
var ErrSessionComplete = errors.New("session complete")

// MaxSessionRounds bounds the size of a practice session.
const MaxSessionRounds = 50

// RoundSummary records how one finished practice round went.
type RoundSummary struct {
	Round   int               `json:"round"` // 1-based
	Target  countries.Country `json:"target"`
	Guesses int               `json:"guesses"` // 0 for skipped rounds
	Won     bool              `json:"won"`
}

// Session is a practice run of Total rounds.
type Session struct {
	ID      string         `json:"id"`
	Total   int            `json:"total"`
	Current *Round         `json:"current,omitempty"`
	Results []RoundSummary `json:"results"`
}

// NewSession creates an empty session of total rounds.
func NewSession(total int) (*Session, error) {
	if total < 1 || total > MaxSessionRounds {
		return nil, fmt.Errorf("%w: session size must be 1..%d", ErrInvalidOperation, MaxSessionRounds)
	}
	return &Session{ID: uuid.NewString(), Total: total, Results: []RoundSummary{}}, nil
}

// Next starts the following round, avoiding the previous target.
// rnd may be nil to use the global source.
func (s *Session) Next(tbl *countries.Table, rnd *mrand.Rand) (*Round, error) {
	if s.Complete() {
		return nil, ErrSessionComplete
	}
	prev := ""
	if s.Current != nil {
		if !s.Current.Finished() {
			return nil, fmt.Errorf("%w: current round is still in progress", ErrInvalidOperation)
		}
		prev = s.Current.Target.Code
	}
	r := NewRound()
	if err := r.Start(tbl, PracticePolicy{Rand: rnd, Exclude: prev}); err != nil {
		return nil, err
	}
	s.Current = r
	return r, nil
}

// SubmitName guesses in the current round.
func (s *Session) SubmitName(tbl *countries.Table, name string) (Guess, error) {
	if s.Current == nil {
		return Guess{}, fmt.Errorf("%w: no round started", ErrInvalidOperation)
	}
	g, err := s.Current.SubmitName(tbl, name)
	if err != nil {
		return g, err
	}
	s.recordIfFinished()
	return g, nil
}

// SubmitCode guesses by code in the current round.
func (s *Session) SubmitCode(tbl *countries.Table, code string) (Guess, error) {
	if s.Current == nil {
		return Guess{}, fmt.Errorf("%w: no round started", ErrInvalidOperation)
	}
	g, err := s.Current.SubmitCode(tbl, code)
	if err != nil {
		return g, err
	}
	s.recordIfFinished()
	return g, nil
}

// Skip gives up the current round; it counts as lost with zero guesses.
func (s *Session) Skip() error {
	if s.Current == nil {
		return fmt.Errorf("%w: no round started", ErrInvalidOperation)
	}
	if err := s.Current.Skip(); err != nil {
		return err
	}
	s.recordIfFinished()
	return nil
}

func (s *Session) recordIfFinished() {
	r := s.Current
	if r == nil || !r.Finished() || len(s.Results) >= s.Total {
		return
	}
	sum := RoundSummary{Round: len(s.Results) + 1, Target: r.Target, Won: r.Won()}
	if sum.Won {
		sum.Guesses = len(r.Guesses)
	}
	s.Results = append(s.Results, sum)
}

// Complete reports whether all rounds have been played.
func (s *Session) Complete() bool { return len(s.Results) >= s.Total }

// Wins counts won rounds.
func (s *Session) Wins() int {
	n := 0
	for _, r := range s.Results {
		if r.Won {
			n++
		}
	}
	return n
}

// AverageGuesses is the mean guess count over won rounds, 0 if none were won.
func (s *Session) AverageGuesses() float64 {
	wins, total := 0, 0
	for _, r := range s.Results {
		if r.Won {
			wins++
			total += r.Guesses
		}
	}
	if wins == 0 {
		return 0
	}
	return float64(total) / float64(wins)
}

// SessionView is the read-only snapshot of a session.
type SessionView struct {
	ID             string         `json:"id"`
	RoundNumber    int            `json:"round"` // 1-based index of the current round, 0 before the first
	Total          int            `json:"total"`
	Current        *RoundView     `json:"current,omitempty"`
	Results        []RoundSummary `json:"results"`
	Wins           int            `json:"wins"`
	AverageGuesses float64        `json:"averageGuesses"`
	Complete       bool           `json:"complete"`
}

// Snapshot returns the presentation view of s.
func (s *Session) Snapshot() SessionView {
	v := SessionView{
		ID:             s.ID,
		Total:          s.Total,
		Results:        append([]RoundSummary{}, s.Results...),
		Wins:           s.Wins(),
		AverageGuesses: s.AverageGuesses(),
		Complete:       s.Complete(),
	}
	if s.Current != nil {
		rv := s.Current.Snapshot()
		v.Current = &rv
		v.RoundNumber = len(s.Results)
		if !s.Current.Finished() {
			v.RoundNumber++
		}
	}
	return v
}
