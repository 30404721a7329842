package maps

import (
	"context"
	"time"
)

// TrackerInterface abstracts the rate tracker
type TrackerInterface interface {
	CheckRateLimit(ctx context.Context, driverID string, isTrial bool) (*Usage, bool, error)
	Record(ctx context.Context, driverID string, isTrial bool) (*Usage, error)
	DailyLimit(isTrial bool) int
}

var _ TrackerInterface = (*RateTracker)(nil)

// CacheInterface abstracts the distance cache
type CacheInterface interface {
	Get(ctx context.Context, pickup, dropoff Coordinates) (*DistanceCacheEntry, error)
	Put(ctx context.Context, pickup, dropoff Coordinates, distanceKm, durationMinutes float64, fareEstimate int64) error
}

var _ CacheInterface = (*DistanceCache)(nil)

// DistanceFunc computes distance and travel time between two points.
// This is the paid computation path the cache and rate limits wrap.
type DistanceFunc func(ctx context.Context, originLat, originLng, destLat, destLng float64) (distanceKm, durationMinutes float64, err error)

// Standing is the subscription view the access validator needs
type Standing struct {
	SubscriptionStatus string
	TrialExpired       bool
	SuspendedUntil     *time.Time
}

// StandingSource resolves a driver's current subscription standing.
// Implemented by an adapter over the subscription service.
type StandingSource interface {
	DriverStanding(ctx context.Context, driverID string) (*Standing, error)
}
