package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistanceCache stores distance results keyed by coordinates rounded to
// 3 decimal places, roughly a 111m grid. Expiry is left to Redis TTLs,
// so an expired entry reads as a miss rather than being swept.
type DistanceCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewDistanceCache creates a Redis-backed distance cache
func NewDistanceCache(client redis.Cmdable, prefix string, ttl time.Duration) *DistanceCache {
	if prefix == "" {
		prefix = "maps"
	}
	if ttl == 0 {
		ttl = time.Hour
	}

	return &DistanceCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests
func (c *DistanceCache) WithNow(now func() time.Time) *DistanceCache {
	c.now = now
	return c
}

// CacheKey derives the cache key from the four rounded coordinates.
// Rounding happens per coordinate so nearby requests share an entry.
func (c *DistanceCache) CacheKey(pickup, dropoff Coordinates) string {
	return fmt.Sprintf("%s:distance:%.3f:%.3f:%.3f:%.3f",
		c.prefix, pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)
}

// Get returns the cached entry, or nil on a miss
func (c *DistanceCache) Get(ctx context.Context, pickup, dropoff Coordinates) (*DistanceCacheEntry, error) {
	data, err := c.client.Get(ctx, c.CacheKey(pickup, dropoff)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var entry DistanceCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// A corrupt entry is a miss, not a failure.
		return nil, nil
	}

	return &entry, nil
}

// Put stores a distance result. Last writer wins; identical coordinates
// produce near-identical values so overwrites are harmless.
func (c *DistanceCache) Put(ctx context.Context, pickup, dropoff Coordinates, distanceKm, durationMinutes float64, fareEstimate int64) error {
	entry := DistanceCacheEntry{
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
		FareEstimate:    fareEstimate,
		CachedAt:        c.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	if err := c.client.Set(ctx, c.CacheKey(pickup, dropoff), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}

	return nil
}
