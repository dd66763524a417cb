// Package geo computes distances between NOTAM coordinates and a route.
package geo

import (
	"math"

	"notamcore/internal/notam/models"
)

const (
	// EarthRadiusMeters is the mean earth radius.
	EarthRadiusMeters = 6371000
	// NMPerMeter converts metres to nautical miles.
	NMPerMeter = 0.000539957
	// NMPerLatitude is the length of one degree of latitude.
	NMPerLatitude = 60
)

func radians(d float64) float64 { return d / 180 * math.Pi }

// DistanceNM returns the great-circle distance between a and b in nautical
// miles (haversine).
func DistanceNM(a, b models.Coordinate) float64 {
	lat1, lon1 := radians(a.Latitude), radians(a.Longitude)
	lat2, lon2 := radians(b.Latitude), radians(b.Longitude)
	dlat, dlon := lat2-lat1, lon2-lon1

	x := sqr(math.Sin(dlat/2)) + math.Cos(lat1)*math.Cos(lat2)*sqr(math.Sin(dlon/2))
	c := 2 * math.Atan2(math.Sqrt(x), math.Sqrt(1-x))
	return EarthRadiusMeters * c * NMPerMeter
}

// NMPerLongitudeAt is the length of one degree of longitude at latitude lat.
func NMPerLongitudeAt(lat float64) float64 {
	return NMPerLatitude * math.Cos(radians(lat))
}

// DistanceToSegmentNM returns the minimum distance from p to the segment
// vw. The segment is projected onto a plane tangent at p, which is accurate
// for the short distances the priority rules compare against.
func DistanceToSegmentNM(p, v, w models.Coordinate) float64 {
	nmPerLon := NMPerLongitudeAt(p.Latitude)
	project := func(c models.Coordinate) [2]float64 {
		return [2]float64{
			wrapLongitude(c.Longitude-p.Longitude) * nmPerLon,
			(c.Latitude - p.Latitude) * NMPerLatitude,
		}
	}
	a, b := project(v), project(w)

	d := [2]float64{b[0] - a[0], b[1] - a[1]}
	l2 := d[0]*d[0] + d[1]*d[1]
	if l2 == 0 {
		return DistanceNM(p, v)
	}
	// p is the origin of the projection.
	t := clamp(-(a[0]*d[0]+a[1]*d[1])/l2, 0, 1)
	return math.Hypot(a[0]+t*d[0], a[1]+t*d[1])
}

// DistanceToRouteNM returns the minimum distance from p to any leg of the
// route, and false when the route has fewer than two points or any point is
// outside the WGS84 ranges.
func DistanceToRouteNM(p models.Coordinate, route []models.Coordinate) (float64, bool) {
	if len(route) < 2 || !p.Valid() {
		return 0, false
	}
	for _, c := range route {
		if !c.Valid() {
			return 0, false
		}
	}
	best := math.Inf(1)
	for i := 1; i < len(route); i++ {
		best = min(best, DistanceToSegmentNM(p, route[i-1], route[i]))
	}
	return best, true
}

// wrapLongitude maps a longitude difference into [-180, 180].
func wrapLongitude(d float64) float64 {
	return math.Remainder(d, 360)
}

func sqr(v float64) float64 { return v * v }

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
