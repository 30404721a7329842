package maps

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/movaride/driver-lifecycle/pkg/common"
	"github.com/movaride/driver-lifecycle/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	distanceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_distance_requests_total",
			Help: "Distance calculations by result source",
		},
		[]string{"source"},
	)
	mapDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_request_denials_total",
			Help: "Map requests denied, by reason",
		},
		[]string{"reason"},
	)
)

// Config holds fare constants and the navigation throttle interval
type Config struct {
	BaseFare           int64
	PerKmRate          int64
	NavigationInterval time.Duration
}

// Service wraps the paid distance computation with access validation,
// rate limiting, and caching. The ordering of those checks is the cost
// control this component exists for.
type Service struct {
	tracker  TrackerInterface
	cache    CacheInterface
	distance DistanceFunc
	cfg      Config
	now      func() time.Time
}

// NewService creates a new maps service
func NewService(tracker TrackerInterface, cache CacheInterface, distance DistanceFunc, cfg Config) *Service {
	if cfg.BaseFare == 0 {
		cfg.BaseFare = 500
	}
	if cfg.PerKmRate == 0 {
		cfg.PerKmRate = 150
	}
	if cfg.NavigationInterval == 0 {
		cfg.NavigationInterval = 30 * time.Second
	}
	if distance == nil {
		distance = HaversineDistance
	}

	return &Service{
		tracker:  tracker,
		cache:    cache,
		distance: distance,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithNow overrides the clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Fare computes the estimate in minor currency units
func (s *Service) Fare(distanceKm float64) int64 {
	return s.cfg.BaseFare + int64(math.Round(distanceKm*float64(s.cfg.PerKmRate)))
}

// CalculateDistanceAndFare runs the ordered pipeline: cache lookup,
// access validation, rate limit, distance computation, cache write,
// usage record. A cache hit short-circuits everything after step one,
// so the paid path runs at most once per rounded coordinate pair per
// cache TTL window.
func (s *Service) CalculateDistanceAndFare(ctx context.Context, driverID string, req *DistanceRequest) (*DistanceResult, error) {
	entry, err := s.cache.Get(ctx, req.Pickup, req.Dropoff)
	if err != nil {
		return nil, common.NewUnavailableError("cache lookup failed", err)
	}
	if entry != nil {
		distanceRequests.WithLabelValues(SourceCache).Inc()
		return &DistanceResult{
			DistanceKm:      entry.DistanceKm,
			DurationMinutes: entry.DurationMinutes,
			FareEstimate:    entry.FareEstimate,
			Source:          SourceCache,
		}, nil
	}

	decision := CanUseMap(AccessInput{
		SubscriptionStatus: req.SubscriptionStatus,
		TrialExpired:       req.TrialExpired,
		IsOnline:           req.IsOnline,
		HasActiveRide:      req.HasActiveRide,
		RequestType:        RequestDistance,
	})
	if !decision.Allowed {
		mapDenials.WithLabelValues(decision.Reason).Inc()
		return nil, common.NewAccessDeniedError(decision.Message)
	}

	isTrial := req.SubscriptionStatus == StatusTrial
	usage, allowed, err := s.tracker.CheckRateLimit(ctx, driverID, isTrial)
	if err != nil {
		return nil, common.NewUnavailableError("rate check failed", err)
	}
	if !allowed {
		mapDenials.WithLabelValues(DenyRateLimited).Inc()
		msg := fmt.Sprintf("Map request limit reached (%d/%d this hour, %d/%d today)",
			usage.HourlyCount, usage.HourlyLimit, usage.DailyCount, usage.DailyLimit)
		return nil, common.NewRateLimitError(msg, time.Minute)
	}

	distanceKm, durationMinutes, err := s.distance(ctx, req.Pickup.Lat, req.Pickup.Lng, req.Dropoff.Lat, req.Dropoff.Lng)
	if err != nil {
		return nil, common.NewUnavailableError("distance computation failed", err)
	}

	fare := s.Fare(distanceKm)

	// The result is already in hand; cache and usage writes must not
	// fail the request.
	if err := s.cache.Put(ctx, req.Pickup, req.Dropoff, distanceKm, durationMinutes, fare); err != nil {
		logger.WithContext(ctx).Warn("distance cache write failed",
			zap.String("driver_id", driverID), zap.Error(err))
	}
	if _, err := s.tracker.Record(ctx, driverID, isTrial); err != nil {
		logger.WithContext(ctx).Warn("usage record failed",
			zap.String("driver_id", driverID), zap.Error(err))
	}

	distanceRequests.WithLabelValues(SourceAPI).Inc()
	return &DistanceResult{
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
		FareEstimate:    fare,
		Source:          SourceAPI,
	}, nil
}

// GetNavigationUpdate returns a throttled turn-by-turn update. At most
// one update per interval; too-early calls are denied with the seconds
// remaining until the next slot.
func (s *Service) GetNavigationUpdate(ctx context.Context, driverID string, req *NavigationRequest) (*NavigationUpdate, error) {
	now := s.now()
	if req.LastUpdateTime != nil {
		elapsed := now.Sub(*req.LastUpdateTime)
		if elapsed < s.cfg.NavigationInterval {
			remaining := s.cfg.NavigationInterval - elapsed
			msg := fmt.Sprintf("Navigation update available in %d second(s)", int(remaining.Round(time.Second).Seconds()))
			return nil, common.NewRateLimitError(msg, remaining)
		}
	}

	distanceKm, durationMinutes, err := s.distance(ctx,
		req.CurrentLocation.Lat, req.CurrentLocation.Lng,
		req.Destination.Lat, req.Destination.Lng)
	if err != nil {
		return nil, common.NewUnavailableError("distance computation failed", err)
	}

	return &NavigationUpdate{
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
		NextAllowedAt:   now.Add(s.cfg.NavigationInterval),
	}, nil
}

// GetUsage returns a driver's current window counts
func (s *Service) GetUsage(ctx context.Context, driverID string, isTrial bool) (*Usage, error) {
	usage, _, err := s.tracker.CheckRateLimit(ctx, driverID, isTrial)
	if err != nil {
		return nil, common.NewUnavailableError("usage lookup failed", err)
	}
	return usage, nil
}
