package maps

import (
	"time"
)

// RequestType classifies a map feature request
type RequestType string

const (
	RequestDistance   RequestType = "distance"
	RequestNavigation RequestType = "navigation"
	RequestGeocode    RequestType = "geocode"
)

// Subscription standings consumed by the access validator. The values
// mirror the subscription package's status enum.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusLimited   = "limited"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

// Denial reasons for map access
const (
	DenyOffline       = "driver_offline"
	DenySuspended     = "subscription_suspended"
	DenyTrialExpired  = "trial_expired"
	DenyLimitedAccess = "limited_access"
	DenyCancelled     = "subscription_cancelled"
	DenyNoActiveRide  = "no_active_ride"
	DenyRateLimited   = "rate_limit_exceeded"
)

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AccessInput is everything the access validator looks at
type AccessInput struct {
	SubscriptionStatus string
	TrialExpired       bool
	IsOnline           bool
	HasActiveRide      bool
	RequestType        RequestType
}

// AccessDecision is the validator's verdict
type AccessDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Usage reports a driver's current request counts for observability
type Usage struct {
	HourlyCount   int   `json:"hourly_count"`
	DailyCount    int   `json:"daily_count"`
	LifetimeTotal int64 `json:"lifetime_total"`
	HourlyLimit   int   `json:"hourly_limit"`
	DailyLimit    int   `json:"daily_limit"`
}

// DistanceCacheEntry is the cached result of one distance computation
type DistanceCacheEntry struct {
	DistanceKm      float64   `json:"distance_km"`
	DurationMinutes float64   `json:"duration_minutes"`
	FareEstimate    int64     `json:"fare_estimate"`
	CachedAt        time.Time `json:"cached_at"`
}

// Result sources for cost attribution
const (
	SourceCache = "cache"
	SourceAPI   = "api"
)

// DistanceResult is the outcome of a distance-and-fare calculation.
// Source records whether the paid computation path ran.
type DistanceResult struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	FareEstimate    int64   `json:"fare_estimate"`
	Source          string  `json:"source"`
}

// DistanceRequest carries the inputs for a distance calculation
type DistanceRequest struct {
	RideID             string      `json:"ride_id,omitempty"`
	Pickup             Coordinates `json:"pickup" binding:"required"`
	Dropoff            Coordinates `json:"dropoff" binding:"required"`
	SubscriptionStatus string      `json:"-"`
	TrialExpired       bool        `json:"-"`
	IsOnline           bool        `json:"is_online"`
	HasActiveRide      bool        `json:"has_active_ride"`
}

// NavigationRequest carries the inputs for a navigation update
type NavigationRequest struct {
	RideID          string      `json:"ride_id" binding:"required"`
	CurrentLocation Coordinates `json:"current_location" binding:"required"`
	Destination     Coordinates `json:"destination" binding:"required"`
	LastUpdateTime  *time.Time  `json:"last_update_time,omitempty"`
	IsOnline        bool        `json:"is_online"`
	HasActiveRide   bool        `json:"has_active_ride"`
}

// NavigationUpdate is the throttled navigation response
type NavigationUpdate struct {
	DistanceKm      float64   `json:"distance_km"`
	DurationMinutes float64   `json:"duration_minutes"`
	NextAllowedAt   time.Time `json:"next_allowed_at"`
}
