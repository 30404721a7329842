package maps

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Window tests run the Lua scripts against miniredis so the prune
// cutoffs and counts are exercised for real, not mocked.

func newWindowTracker(t *testing.T) (*RateTracker, *time.Time) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tracker := NewRateTracker(client, TrackerConfig{}).
		WithNow(func() time.Time { return current })

	return tracker, &current
}

func TestRateTracker_HundredthRequestFillsHourlyWindow(t *testing.T) {
	tracker, clock := newWindowTracker(t)
	ctx := context.Background()

	// one request now, ninety-nine more five minutes later
	_, err := tracker.Record(ctx, "driver-1", false)
	require.NoError(t, err)

	*clock = clock.Add(5 * time.Minute)
	for i := 0; i < 99; i++ {
		_, err := tracker.Record(ctx, "driver-1", false)
		require.NoError(t, err)
	}

	usage, allowed, err := tracker.CheckRateLimit(ctx, "driver-1", false)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 100, usage.HourlyCount)
	assert.Equal(t, 100, usage.DailyCount)
	assert.Equal(t, int64(100), usage.LifetimeTotal)
}

func TestRateTracker_EntryOlderThanAnHourStopsCounting(t *testing.T) {
	tracker, clock := newWindowTracker(t)
	ctx := context.Background()

	_, err := tracker.Record(ctx, "driver-1", false)
	require.NoError(t, err)

	*clock = clock.Add(5 * time.Minute)
	for i := 0; i < 99; i++ {
		_, err := tracker.Record(ctx, "driver-1", false)
		require.NoError(t, err)
	}

	// the first entry is now 61 minutes old, the rest 56
	*clock = clock.Add(56 * time.Minute)

	usage, allowed, err := tracker.CheckRateLimit(ctx, "driver-1", false)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 99, usage.HourlyCount)
	assert.Equal(t, 100, usage.DailyCount)
	assert.Equal(t, int64(100), usage.LifetimeTotal)
}

func TestRateTracker_DailyWindowPrunesAfter24Hours(t *testing.T) {
	tracker, clock := newWindowTracker(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.Record(ctx, "driver-1", false)
		require.NoError(t, err)
	}

	*clock = clock.Add(25 * time.Hour)

	usage, allowed, err := tracker.CheckRateLimit(ctx, "driver-1", false)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, usage.HourlyCount)
	assert.Equal(t, 0, usage.DailyCount)
	assert.Equal(t, int64(5), usage.LifetimeTotal)
}

func TestRateTracker_TrialDailyLimitApplies(t *testing.T) {
	tracker, _ := newWindowTracker(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := tracker.Record(ctx, "driver-1", true)
		require.NoError(t, err)
	}

	usage, allowed, err := tracker.CheckRateLimit(ctx, "driver-1", true)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 20, usage.DailyCount)
	assert.Equal(t, 20, usage.DailyLimit)

	// the same usage is nowhere near the standard daily cap
	usage, allowed, err = tracker.CheckRateLimit(ctx, "driver-1", false)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 500, usage.DailyLimit)
}

func TestRateTracker_RecordReportsLimits(t *testing.T) {
	tracker, _ := newWindowTracker(t)
	ctx := context.Background()

	usage, err := tracker.Record(ctx, "driver-1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.HourlyCount)
	assert.Equal(t, 100, usage.HourlyLimit)
	assert.Equal(t, 20, usage.DailyLimit)

	usage, err = tracker.Record(ctx, "driver-1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.HourlyCount)
	assert.Equal(t, 500, usage.DailyLimit)
}

func TestRateTracker_WindowsArePerDriver(t *testing.T) {
	tracker, _ := newWindowTracker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := tracker.Record(ctx, "driver-1", false)
		require.NoError(t, err)
	}

	usage, allowed, err := tracker.CheckRateLimit(ctx, "driver-2", false)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, usage.HourlyCount)
	assert.Equal(t, int64(0), usage.LifetimeTotal)
}
