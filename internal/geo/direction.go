package geo

// Direction is one of the eight compass labels.
type Direction string

const (
	North     Direction = "N"
	NorthEast Direction = "NE"
	East      Direction = "E"
	SouthEast Direction = "SE"
	South     Direction = "S"
	SouthWest Direction = "SW"
	West      Direction = "W"
	NorthWest Direction = "NW"
)

// compass is ordered clockwise from North, 45° apart.
var compass = [...]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var arrows = map[Direction]string{
	North:     "↑",
	NorthEast: "↗",
	East:      "→",
	SouthEast: "↘",
	South:     "↓",
	SouthWest: "↙",
	West:      "←",
	NorthWest: "↖",
}

// Directions returns the eight labels in clockwise order starting at North.
func Directions() []Direction {
	out := make([]Direction, len(compass))
	copy(out, compass[:])
	return out
}

// Valid reports whether d is one of the eight labels.
func (d Direction) Valid() bool {
	_, ok := arrows[d]
	return ok
}

// Arrow returns a glyph pointing in direction d, or "" for an unknown label.
func (d Direction) Arrow() string { return arrows[d] }
