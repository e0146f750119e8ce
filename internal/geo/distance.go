// Package geo holds the pure geodesic math used by duplicate detection.
// All functions are deterministic and keep no state.
package geo

import (
	"math"

	"github.com/ddanilov/poisk/internal/model"
)

const (
	// EarthRadiusM is the mean Earth radius used by the haversine formula.
	EarthRadiusM = 6_371_000.0

	// metersPerDegreeLat approximates one degree of latitude. Longitude
	// degrees shrink with cos(lat); see SearchRect.
	metersPerDegreeLat = 111_000.0
)

// HaversineDistance returns the great-circle distance in meters between two
// latitude/longitude points.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// SearchRect returns a bounding box of radius meters around the point, using
// the flat-earth degree approximation. It over-covers near the poles, which
// is fine for a pre-filter: the precise haversine pass discards the excess.
func SearchRect(lat, lng, radiusM float64) model.BoundingBox {
	dLat := radiusM / metersPerDegreeLat

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-9 {
		cosLat = 1e-9
	}
	dLng := radiusM / (metersPerDegreeLat * cosLat)

	return model.BoundingBox{
		South: lat - dLat,
		West:  lng - dLng,
		North: lat + dLat,
		East:  lng + dLng,
	}
}
