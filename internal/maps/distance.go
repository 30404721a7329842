package maps

import (
	"context"
	"math"
)

const (
	earthRadiusKm = 6371.0
	// City traffic assumption used to estimate travel time from distance.
	averageSpeedKmh = 30.0
)

// HaversineDistance is the default DistanceFunc: a geodesic approximation
// with a fixed-speed duration estimate. Deployments with a routing API
// swap in their own DistanceFunc at wiring time.
func HaversineDistance(_ context.Context, originLat, originLng, destLat, destLng float64) (float64, float64, error) {
	lat1 := originLat * math.Pi / 180
	lat2 := destLat * math.Pi / 180
	dLat := (destLat - originLat) * math.Pi / 180
	dLng := (destLng - originLng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	distanceKm := earthRadiusKm * c
	durationMinutes := distanceKm / averageSpeedKmh * 60

	return distanceKm, durationMinutes, nil
}
