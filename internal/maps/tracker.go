package maps

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateTracker maintains per-driver rolling request windows in Redis.
// Both windows are sorted sets scored by request time; pruning and
// counting happen atomically in Lua so concurrent requests for the same
// driver cannot undercount.
type RateTracker struct {
	client redis.Cmdable
	cfg    TrackerConfig
	now    func() time.Time
}

// TrackerConfig holds the window limits and key prefix
type TrackerConfig struct {
	HourlyLimit     int
	DailyLimit      int
	TrialDailyLimit int
	Prefix          string
}

// NewRateTracker creates a Redis-backed rate tracker
func NewRateTracker(client redis.Cmdable, cfg TrackerConfig) *RateTracker {
	if cfg.HourlyLimit == 0 {
		cfg.HourlyLimit = 100
	}
	if cfg.DailyLimit == 0 {
		cfg.DailyLimit = 500
	}
	if cfg.TrialDailyLimit == 0 {
		cfg.TrialDailyLimit = 20
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "maps"
	}

	return &RateTracker{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests
func (t *RateTracker) WithNow(now func() time.Time) *RateTracker {
	t.now = now
	return t
}

var usageScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', ARGV[2])
local hourly = redis.call('ZCARD', KEYS[1])
local daily = redis.call('ZCARD', KEYS[2])
local total = tonumber(redis.call('GET', KEYS[3]) or '0')
return {hourly, daily, total}
`)

var recordScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', ARGV[2])
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[4])
redis.call('EXPIRE', KEYS[1], 3600)
redis.call('EXPIRE', KEYS[2], 86400)
local total = redis.call('INCR', KEYS[3])
local hourly = redis.call('ZCARD', KEYS[1])
local daily = redis.call('ZCARD', KEYS[2])
return {hourly, daily, total}
`)

func (t *RateTracker) keys(driverID string) []string {
	return []string{
		fmt.Sprintf("%s:usage:hourly:%s", t.cfg.Prefix, driverID),
		fmt.Sprintf("%s:usage:daily:%s", t.cfg.Prefix, driverID),
		fmt.Sprintf("%s:usage:total:%s", t.cfg.Prefix, driverID),
	}
}

// DailyLimit returns the daily cap that applies to the driver
func (t *RateTracker) DailyLimit(isTrial bool) int {
	if isTrial {
		return t.cfg.TrialDailyLimit
	}
	return t.cfg.DailyLimit
}

// CheckRateLimit prunes both windows and reports whether another request
// is allowed, along with current usage for observability
func (t *RateTracker) CheckRateLimit(ctx context.Context, driverID string, isTrial bool) (*Usage, bool, error) {
	now := t.now()
	hourCutoff := now.Add(-time.Hour).UnixNano()
	dayCutoff := now.Add(-24 * time.Hour).UnixNano()

	result, err := usageScript.Run(ctx, t.client, t.keys(driverID), hourCutoff, dayCutoff).Int64Slice()
	if err != nil {
		return nil, false, fmt.Errorf("usage check: %w", err)
	}
	if len(result) != 3 {
		return nil, false, fmt.Errorf("usage check: unexpected script result length %d", len(result))
	}

	usage := &Usage{
		HourlyCount:   int(result[0]),
		DailyCount:    int(result[1]),
		LifetimeTotal: result[2],
		HourlyLimit:   t.cfg.HourlyLimit,
		DailyLimit:    t.DailyLimit(isTrial),
	}

	allowed := usage.HourlyCount < usage.HourlyLimit && usage.DailyCount < usage.DailyLimit
	return usage, allowed, nil
}

// Record appends one request to both windows and bumps the lifetime counter
func (t *RateTracker) Record(ctx context.Context, driverID string, isTrial bool) (*Usage, error) {
	now := t.now()
	hourCutoff := now.Add(-time.Hour).UnixNano()
	dayCutoff := now.Add(-24 * time.Hour).UnixNano()

	result, err := recordScript.Run(ctx, t.client, t.keys(driverID),
		hourCutoff, dayCutoff, now.UnixNano(), uuid.NewString()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("usage record: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("usage record: unexpected script result length %d", len(result))
	}

	return &Usage{
		HourlyCount:   int(result[0]),
		DailyCount:    int(result[1]),
		LifetimeTotal: result[2],
		HourlyLimit:   t.cfg.HourlyLimit,
		DailyLimit:    t.DailyLimit(isTrial),
	}, nil
}
