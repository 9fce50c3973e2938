package domain

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distance.
const EarthRadiusKm = 6371.0

// DefaultAlertRadiusKm is the inclusive proximity alert radius.
const DefaultAlertRadiusKm = 250.0

// ProximityPolicy chooses which qualifying event is surfaced.
type ProximityPolicy string

const (
	// PolicyNearest surfaces the event with the smallest distance.
	PolicyNearest ProximityPolicy = "nearest"
	// PolicyFirst surfaces the first qualifying event in cache order.
	PolicyFirst ProximityPolicy = "first"
)

// ParseProximityPolicy validates a policy name.
func ParseProximityPolicy(s string) (ProximityPolicy, error) {
	switch p := ProximityPolicy(s); p {
	case PolicyNearest, PolicyFirst:
		return p, nil
	default:
		return "", fmt.Errorf("unknown proximity policy %q", s)
	}
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, h)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Nearest finds a hazard event within radiusKm (inclusive) of c.
// The returned distance is rounded to the nearest whole kilometre.
func Nearest(c Coordinate, events []GlobalHazardEvent, radiusKm float64, policy ProximityPolicy) (ProximityAlert, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, e := range events {
		d := Haversine(c, e.Coordinate)
		if d > radiusKm {
			continue
		}
		if policy == PolicyFirst {
			return ProximityAlert{Event: e, DistanceKm: math.Round(d)}, true
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return ProximityAlert{}, false
	}
	return ProximityAlert{Event: events[best], DistanceKm: math.Round(bestDist)}, true
}
