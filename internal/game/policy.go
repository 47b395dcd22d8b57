package game

import (
	"errors"
	mrand "math/rand/v2"
	"time"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/daily"
)

var errNoTable = errors.New("game: empty country table")

// Policy chooses the target of a new round.
type Policy interface {
	Mode() Mode
	Pick(tbl *countries.Table) (countries.Country, error)
}

// RandomPolicy picks uniformly from the whole table.
// A nil Rand uses the global source.
type RandomPolicy struct {
	Rand *mrand.Rand
}

func (p RandomPolicy) Mode() Mode { return ModeRandom }

func (p RandomPolicy) Pick(tbl *countries.Table) (countries.Country, error) {
	if tbl == nil || tbl.Len() == 0 {
		return countries.Country{}, errNoTable
	}
	return tbl.At(intn(p.Rand, tbl.Len())), nil
}

// DailyPolicy picks the same target for everyone on Date's UTC day.
type DailyPolicy struct {
	Date time.Time
	Salt string
}

func (p DailyPolicy) Mode() Mode { return ModeDaily }

func (p DailyPolicy) Pick(tbl *countries.Table) (countries.Country, error) {
	if tbl == nil || tbl.Len() == 0 {
		return countries.Country{}, errNoTable
	}
	return tbl.At(daily.TargetIndex(p.Date, p.Salt, tbl.Len())), nil
}

// PracticePolicy picks uniformly but never repeats Exclude back to back,
// unless the table has nothing else to offer.
type PracticePolicy struct {
	Rand    *mrand.Rand
	Exclude string // code of the previous target
}

func (p PracticePolicy) Mode() Mode { return ModePractice }

func (p PracticePolicy) Pick(tbl *countries.Table) (countries.Country, error) {
	if tbl == nil || tbl.Len() == 0 {
		return countries.Country{}, errNoTable
	}
	skip := tbl.IndexOf(p.Exclude)
	if skip < 0 || tbl.Len() == 1 {
		return tbl.At(intn(p.Rand, tbl.Len())), nil
	}
	// Draw from n-1 slots and step over the excluded one.
	i := intn(p.Rand, tbl.Len()-1)
	if i >= skip {
		i++
	}
	return tbl.At(i), nil
}

// intn returns a uniform int in [0, n); a nil r draws from the global source.
func intn(r *mrand.Rand, n int) int {
	if r != nil {
		return r.IntN(n)
	}
	return mrand.IntN(n)
}
