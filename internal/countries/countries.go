// internal/countries/countries.go
//
// The static country table every round is played against.
// Responsibilities:
//   - Hold immutable Country records (name, code, coordinates).
//   - Resolve guesses by name (trimmed, case-folded, exact) or by code.
//   - Offer autocomplete suggestions for partially typed names.
//
// Notes:
//   - Codes are the stable key. Anything that needs to associate a guess
//     with another record (map regions, reports) goes through the code.
//   - A Table is read-only after New and safe for concurrent use.
package countries

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/robalobadob/geoguess/internal/geo"
)

// Country is one row of the static table.
type Country struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the country's reference coordinate.
func (c Country) Point() geo.Point { return geo.Point{Lat: c.Latitude, Lon: c.Longitude} }

// Table is an indexed, immutable list of countries.
type Table struct {
	list   []Country
	byCode map[string]int
	byName map[string]int
}

var (
	ErrEmptyTable    = errors.New("countries: table is empty")
	ErrDuplicateCode = errors.New("countries: duplicate code")
	ErrDuplicateName = errors.New("countries: duplicate name")
)

// New builds a Table from list. Codes are upper-cased; names and codes must be unique.
func New(list []Country) (*Table, error) {
	if len(list) == 0 {
		return nil, ErrEmptyTable
	}
	t := &Table{
		list:   make([]Country, 0, len(list)),
		byCode: make(map[string]int, len(list)),
		byName: make(map[string]int, len(list)),
	}
	for _, c := range list {
		c.Name = strings.TrimSpace(c.Name)
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.Name == "" || c.Code == "" {
			return nil, fmt.Errorf("countries: row %d has an empty name or code", len(t.list)+1)
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, c.Code)
		}
		key := fold(c.Name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
		}
		t.byCode[c.Code] = len(t.list)
		t.byName[key] = len(t.list)
		t.list = append(t.list, c)
	}
	return t, nil
}

// Len returns the number of countries.
func (t *Table) Len() int { return len(t.list) }

// At returns the i-th country in table order.
func (t *Table) At(i int) Country { return t.list[i] }

// All returns a copy of the table in table order.
func (t *Table) All() []Country {
	out := make([]Country, len(t.list))
	copy(out, t.list)
	return out
}

// ByName looks up a country by exact name, ignoring case and surrounding space.
func (t *Table) ByName(name string) (Country, bool) {
	i, ok := t.byName[fold(strings.TrimSpace(name))]
	if !ok {
		return Country{}, false
	}
	return t.list[i], true
}

// ByCode looks up a country by code, ignoring case.
func (t *Table) ByCode(code string) (Country, bool) {
	i, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return t.list[i], true
}

// IndexOf returns the table position of code, or -1.
func (t *Table) IndexOf(code string) int {
	if i, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return i
	}
	return -1
}

// Suggest returns up to limit countries whose name matches the typed query.
// Names starting with the query come first, then names containing it;
// each group is alphabetical. An empty query yields nothing.
func (t *Table) Suggest(query string, limit int) []Country {
	q := fold(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}
	var prefix, contains []Country
	for _, c := range t.list {
		n := fold(c.Name)
		switch {
		case strings.HasPrefix(n, q):
			prefix = append(prefix, c)
		case strings.Contains(n, q):
			contains = append(contains, c)
		}
	}
	byName := func(s []Country) {
		sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	}
	byName(prefix)
	byName(contains)

	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// fold maps s to its Unicode case-folded form. Casers keep state, so a fresh
// one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
