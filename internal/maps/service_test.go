package maps

import (
	"context"
	"testing"
	"time"

	"github.com/movaride/driver-lifecycle/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// FAKES
// ========================================

type fakeTracker struct {
	usage    Usage
	allowed  bool
	recorded int
}

func (f *fakeTracker) CheckRateLimit(ctx context.Context, driverID string, isTrial bool) (*Usage, bool, error) {
	u := f.usage
	return &u, f.allowed, nil
}

func (f *fakeTracker) Record(ctx context.Context, driverID string, isTrial bool) (*Usage, error) {
	f.recorded++
	u := f.usage
	return &u, nil
}

func (f *fakeTracker) DailyLimit(isTrial bool) int {
	if isTrial {
		return 20
	}
	return 500
}

type fakeCache struct {
	entries map[string]*DistanceCacheEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*DistanceCacheEntry)}
}

func (f *fakeCache) key(pickup, dropoff Coordinates) string {
	c := NewDistanceCache(nil, "maps", time.Hour)
	return c.CacheKey(pickup, dropoff)
}

func (f *fakeCache) Get(ctx context.Context, pickup, dropoff Coordinates) (*DistanceCacheEntry, error) {
	return f.entries[f.key(pickup, dropoff)], nil
}

func (f *fakeCache) Put(ctx context.Context, pickup, dropoff Coordinates, distanceKm, durationMinutes float64, fareEstimate int64) error {
	f.entries[f.key(pickup, dropoff)] = &DistanceCacheEntry{
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
		FareEstimate:    fareEstimate,
		CachedAt:        time.Now(),
	}
	return nil
}

// countingDistance wraps a fixed result and counts invocations of the
// paid computation path
type countingDistance struct {
	calls      int
	distanceKm float64
	duration   float64
}

func (d *countingDistance) fn(ctx context.Context, oLat, oLng, dLat, dLng float64) (float64, float64, error) {
	d.calls++
	return d.distanceKm, d.duration, nil
}

// ========================================
// HELPERS
// ========================================

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(tracker *fakeTracker, cache *fakeCache, dist *countingDistance) *Service {
	return NewService(tracker, cache, dist.fn, Config{}).
		WithNow(func() time.Time { return fixedNow })
}

func activeRequest() *DistanceRequest {
	return &DistanceRequest{
		Pickup:             Coordinates{Lat: 6.5244, Lng: 3.3792},
		Dropoff:            Coordinates{Lat: 6.4281, Lng: 3.4219},
		SubscriptionStatus: StatusActive,
		IsOnline:           true,
	}
}

// ========================================
// PIPELINE
// ========================================

func TestCalculateDistanceAndFare_CacheMissRunsPaidPath(t *testing.T) {
	tracker := &fakeTracker{allowed: true}
	cache := newFakeCache()
	dist := &countingDistance{distanceKm: 12.5, duration: 25}
	svc := newTestService(tracker, cache, dist)

	result, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", activeRequest())
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, result.Source)
	assert.Equal(t, 12.5, result.DistanceKm)
	// 500 base + round(12.5 * 150)
	assert.Equal(t, int64(2375), result.FareEstimate)
	assert.Equal(t, 1, dist.calls)
	assert.Equal(t, 1, tracker.recorded)
}

// The cost-control property: a second request for the same rounded
// coordinates within the TTL returns from cache without touching the
// distance function or the rate tracker.
func TestCalculateDistanceAndFare_SecondCallHitsCache(t *testing.T) {
	tracker := &fakeTracker{allowed: true}
	cache := newFakeCache()
	dist := &countingDistance{distanceKm: 12.5, duration: 25}
	svc := newTestService(tracker, cache, dist)

	first, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", activeRequest())
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, first.Source)

	second, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", activeRequest())
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.FareEstimate, second.FareEstimate)
	assert.Equal(t, 1, dist.calls)
	assert.Equal(t, 1, tracker.recorded)
}

// Nearby coordinates land on the same 3-decimal grid cell and share an
// entry; ~111m apart is close enough.
func TestCalculateDistanceAndFare_NearbyCoordinatesShareEntry(t *testing.T) {
	tracker := &fakeTracker{allowed: true}
	cache := newFakeCache()
	dist := &countingDistance{distanceKm: 12.5, duration: 25}
	svc := newTestService(tracker, cache, dist)

	_, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", activeRequest())
	require.NoError(t, err)

	nearby := activeRequest()
	nearby.Pickup.Lat -= 0.0003 // 6.5241 still rounds to 6.524
	result, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", nearby)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, 1, dist.calls)
}

func TestCalculateDistanceAndFare_CacheHitSkipsValidation(t *testing.T) {
	tracker := &fakeTracker{allowed: false}
	cache := newFakeCache()
	dist := &countingDistance{}
	svc := newTestService(tracker, cache, dist)

	req := activeRequest()
	require.NoError(t, cache.Put(context.Background(), req.Pickup, req.Dropoff, 5, 10, 1250))

	// Suspended and rate-limited, but the cache answers first.
	req.SubscriptionStatus = StatusSuspended
	result, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", req)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, 0, dist.calls)
}

func TestCalculateDistanceAndFare_AccessDenied(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DistanceRequest)
	}{
		{"offline", func(r *DistanceRequest) { r.IsOnline = false }},
		{"suspended", func(r *DistanceRequest) { r.SubscriptionStatus = StatusSuspended }},
		{"limited", func(r *DistanceRequest) { r.SubscriptionStatus = StatusLimited }},
		{"expired trial", func(r *DistanceRequest) {
			r.SubscriptionStatus = StatusTrial
			r.TrialExpired = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &fakeTracker{allowed: true}
			dist := &countingDistance{}
			svc := newTestService(tracker, newFakeCache(), dist)

			req := activeRequest()
			tt.mutate(req)

			_, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", req)
			require.Error(t, err)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, common.CodeAccessDenied, appErr.Code)
			assert.Equal(t, 0, dist.calls)
			assert.Equal(t, 0, tracker.recorded)
		})
	}
}

func TestCalculateDistanceAndFare_RateLimited(t *testing.T) {
	tracker := &fakeTracker{
		allowed: false,
		usage:   Usage{HourlyCount: 100, HourlyLimit: 100, DailyCount: 240, DailyLimit: 500},
	}
	dist := &countingDistance{}
	svc := newTestService(tracker, newFakeCache(), dist)

	_, err := svc.CalculateDistanceAndFare(context.Background(), "driver-1", activeRequest())
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeRateLimited, appErr.Code)
	assert.Contains(t, appErr.Message, "100/100")
	assert.Equal(t, 0, dist.calls)
	assert.Equal(t, 0, tracker.recorded)
}

// ========================================
// FARE
// ========================================

func TestFare(t *testing.T) {
	svc := newTestService(&fakeTracker{allowed: true}, newFakeCache(), &countingDistance{})

	tests := []struct {
		distanceKm float64
		want       int64
	}{
		{0, 500},
		{1, 650},
		{10, 2000},
		{3.333, 1000}, // 500 + round(499.95)
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.Fare(tt.distanceKm))
	}
}

// ========================================
// NAVIGATION THROTTLE
// ========================================

func TestGetNavigationUpdate_FirstCallAllowed(t *testing.T) {
	dist := &countingDistance{distanceKm: 2.1, duration: 4}
	svc := newTestService(&fakeTracker{allowed: true}, newFakeCache(), dist)

	update, err := svc.GetNavigationUpdate(context.Background(), "driver-1", &NavigationRequest{
		RideID:          "ride-1",
		CurrentLocation: Coordinates{Lat: 6.52, Lng: 3.37},
		Destination:     Coordinates{Lat: 6.42, Lng: 3.42},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.1, update.DistanceKm)
	assert.Equal(t, fixedNow.Add(30*time.Second), update.NextAllowedAt)
}

func TestGetNavigationUpdate_ThrottledWithinInterval(t *testing.T) {
	dist := &countingDistance{}
	svc := newTestService(&fakeTracker{allowed: true}, newFakeCache(), dist)

	last := fixedNow.Add(-10 * time.Second)
	_, err := svc.GetNavigationUpdate(context.Background(), "driver-1", &NavigationRequest{
		RideID:          "ride-1",
		CurrentLocation: Coordinates{Lat: 6.52, Lng: 3.37},
		Destination:     Coordinates{Lat: 6.42, Lng: 3.42},
		LastUpdateTime:  &last,
	})
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeRateLimited, appErr.Code)
	assert.Equal(t, 20*time.Second, appErr.RetryAfter)
	assert.Equal(t, 0, dist.calls)
}

func TestGetNavigationUpdate_AllowedAfterInterval(t *testing.T) {
	dist := &countingDistance{distanceKm: 2.1, duration: 4}
	svc := newTestService(&fakeTracker{allowed: true}, newFakeCache(), dist)

	last := fixedNow.Add(-31 * time.Second)
	update, err := svc.GetNavigationUpdate(context.Background(), "driver-1", &NavigationRequest{
		RideID:          "ride-1",
		CurrentLocation: Coordinates{Lat: 6.52, Lng: 3.37},
		Destination:     Coordinates{Lat: 6.42, Lng: 3.42},
		LastUpdateTime:  &last,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(30*time.Second), update.NextAllowedAt)
}
