// internal/geo/geo.go
//
// Great-circle math for guess feedback.
// Responsibilities:
//   - Distance: haversine distance in kilometers on a spherical Earth.
//   - Bearing: initial compass bearing, bucketed into 8 directions.
//
// Inputs are degrees. Nothing here validates ranges; coordinates come from
// the static country table.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func toDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Distance computes the great-circle distance between two points in kilometers.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a a hair outside [0,1]; sqrt(1-a) would then be NaN.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Bearing returns the initial compass direction from point 1 towards point 2.
// Identical points have no defined bearing and report North.
func Bearing(lat1, lon1, lat2, lon2 float64) Direction {
	if lat1 == lat2 && lon1 == lon2 {
		return North
	}
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)
	deg := math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
	if math.IsNaN(deg) {
		return North
	}
	return compass[int(math.Round(deg/45))%len(compass)]
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceTo is Distance from p to q.
func (p Point) DistanceTo(q Point) float64 {
	return Distance(p.Lat, p.Lon, q.Lat, q.Lon)
}

// BearingTo is Bearing from p to q.
func (p Point) BearingTo(q Point) Direction {
	return Bearing(p.Lat, p.Lon, q.Lat, q.Lon)
}
