package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Status represents a driver subscription status
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusLimited   Status = "limited"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Phase is the pricing tier active at a driver's signup time, fixed for the
// driver's subscription lineage.
type Phase string

const (
	PhaseLaunch  Phase = "launch"
	PhaseEarly   Phase = "early"
	PhaseGrowth  Phase = "growth"
	PhasePremium Phase = "premium"
)

// DriverSubscription is the per-driver subscription record. All monetary
// amounts are integer minor currency units.
type DriverSubscription struct {
	ID                uuid.UUID `json:"id" db:"id"`
	DriverID          uuid.UUID `json:"driver_id" db:"driver_id"`
	Status            Status    `json:"status" db:"status"`
	Phase             Phase     `json:"phase" db:"phase"`
	PriceMinor        int64     `json:"price_minor" db:"price_minor"`

	// Trial
	TrialStart      *time.Time `json:"trial_start,omitempty" db:"trial_start"`
	TrialTripsCount int        `json:"trial_trips_count" db:"trial_trips_count"`

	// Billing
	SubscriptionStart       *time.Time `json:"subscription_start,omitempty" db:"subscription_start"`
	SubscriptionEnd         *time.Time `json:"subscription_end,omitempty" db:"subscription_end"`
	LastPaymentDate         *time.Time `json:"last_payment_date,omitempty" db:"last_payment_date"`
	NextPaymentDue          *time.Time `json:"next_payment_due,omitempty" db:"next_payment_due"`
	ReconnectionFeeRequired bool       `json:"reconnection_fee_required" db:"reconnection_fee_required"`
	SuspendedUntil          *time.Time `json:"suspended_until,omitempty" db:"suspended_until"`

	// Referral
	ReferralCode           string     `json:"referral_code" db:"referral_code"`
	ReferredBy             *uuid.UUID `json:"referred_by,omitempty" db:"referred_by"`
	ReferralCountThisMonth int        `json:"referral_count_this_month" db:"referral_count_this_month"`
	FreeMonthsEarned       int        `json:"free_months_earned" db:"free_months_earned"`

	// Performance aggregates
	TotalTrips       int     `json:"total_trips" db:"total_trips"`
	AcceptanceRate   float64 `json:"acceptance_rate" db:"acceptance_rate"`
	CancellationRate float64 `json:"cancellation_rate" db:"cancellation_rate"`
	AverageRating    float64 `json:"average_rating" db:"average_rating"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReferralCredit records one granted referral reward (a free month)
type ReferralCredit struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ReferrerID uuid.UUID `json:"referrer_id" db:"referrer_id"`
	RefereeID  uuid.UUID `json:"referee_id" db:"referee_id"`
	GrantedAt  time.Time `json:"granted_at" db:"granted_at"`
}

// Trial expiry reasons
const (
	TrialExpiryTime  = "24_hours_elapsed"
	TrialExpiryTrips = "3_trips_completed"
)

// TrialStatus is the result of a trial evaluation
type TrialStatus struct {
	IsExpired      bool          `json:"is_expired"`
	ExpiryReason   string        `json:"expiry_reason,omitempty"`
	HoursElapsed   float64       `json:"hours_elapsed"`
	TimeRemaining  time.Duration `json:"time_remaining"`
	TripsRemaining int           `json:"trips_remaining"`
}

// Payment status values
const (
	PaymentNoDue     = "no_payment_due"
	PaymentActive    = "active"
	PaymentLimited   = "limited_access"
	PaymentWarning   = "warning"
	PaymentSuspended = "suspended"
)

// PaymentStatus is the result of a payment evaluation
type PaymentStatus struct {
	Status       string     `json:"status"`
	AmountDue    int64      `json:"amount_due"`
	Message      string     `json:"message"`
	DaysUntilDue int        `json:"days_until_due"`
	DaysOverdue  int        `json:"days_overdue"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// Access levels granted to a driver
type AccessLevel string

const (
	AccessNone    AccessLevel = "none"
	AccessTrial   AccessLevel = "trial"
	AccessLimited AccessLevel = "limited"
	AccessFull    AccessLevel = "full"
)

// AccessDecision is the result of a standing evaluation
type AccessDecision struct {
	Granted bool        `json:"granted"`
	Level   AccessLevel `json:"level"`
	Reason  string      `json:"reason,omitempty"`
}

// ReminderAction maps a day offset relative to the due date to the message
// sent and the status transition the offset implies. The polling loop lives
// in an external scheduler; this table is the whole contract.
type ReminderAction struct {
	Message    string
	Transition Status // empty when no transition is implied
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// RegisterTrialRequest starts a trial subscription for a new driver.
// ReferralCode is the code shown in the referrer's app; it resolves to
// ReferredBy server-side and wins over a caller-supplied driver id.
type RegisterTrialRequest struct {
	DriverID     uuid.UUID  `json:"driver_id" binding:"required"`
	ReferralCode string     `json:"referral_code,omitempty"`
	ReferredBy   *uuid.UUID `json:"referred_by,omitempty"`
}

// RecordPaymentRequest records a received subscription payment
type RecordPaymentRequest struct {
	AmountMinor int64 `json:"amount_minor" binding:"required,gt=0"`
}

// TripCompletedRequest reports a completed trip for trial/referral tracking
type TripCompletedRequest struct {
	TripID uuid.UUID `json:"trip_id" binding:"required"`
}

// SweepResult summarizes one payment sweep run
type SweepResult struct {
	Checked   int `json:"checked"`
	Reminded  int `json:"reminded"`
	Limited   int `json:"limited"`
	Suspended int `json:"suspended"`
}
