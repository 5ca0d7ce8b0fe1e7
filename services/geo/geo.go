package geo

import (
	"math"

	"artisanhub/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// minutesPerKm converts straight-line distance into travel minutes,
// equivalent to an average speed of 30 km/h.
const minutesPerKm = 2.0

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers using the haversine formula.
func DistanceKm(a, b models.Coordinates) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// ETAMinutes estimates travel time between two coordinates, rounded to the
// nearest whole minute.
func ETAMinutes(a, b models.Coordinates) int {
	return int(math.Round(DistanceKm(a, b) * minutesPerKm))
}
