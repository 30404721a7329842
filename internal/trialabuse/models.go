package trialabuse

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistReason classifies why a phone number is blocked from trials
type BlacklistReason string

const (
	BlacklistTrialUsed     BlacklistReason = "trial_used"
	BlacklistAbuseDetected BlacklistReason = "abuse_detected"
)

// BlacklistEntry blocks a normalized phone number from new trial signups
type BlacklistEntry struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Phone     string          `json:"phone" db:"phone"`
	Reason    BlacklistReason `json:"reason" db:"reason"`
	Notes     string          `json:"notes,omitempty" db:"notes"`
	AddedBy   string          `json:"added_by" db:"added_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// TrialAttempt records a successful eligibility check, feeding the
// IP-window check and abuse statistics
type TrialAttempt struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Phone       string    `json:"phone" db:"phone"`
	DeviceID    string    `json:"device_id,omitempty" db:"device_id"`
	IPAddress   string    `json:"ip_address,omitempty" db:"ip_address"`
	AttemptedAt time.Time `json:"attempted_at" db:"attempted_at"`
}

// AbuseLog is a write-only audit entry for operator review
type AbuseLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Phone     string    `json:"phone" db:"phone"`
	Category  string    `json:"category" db:"category"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Denial reasons returned by the eligibility check
const (
	ReasonPhoneBlacklisted = "phone_blacklisted"
	ReasonTrialAlreadyUsed = "trial_already_used"
	ReasonDuplicateNIN     = "duplicate_national_id"
	ReasonDuplicateLicense = "duplicate_license"
	ReasonDeviceReuse      = "device_linked_to_existing_accounts"
	ReasonIPAbuse          = "too_many_attempts_from_ip"
)

// Abuse log categories
const (
	CategoryNINReuse     = "nin_reuse"
	CategoryLicenseReuse = "license_reuse"
	CategoryDeviceReuse  = "device_reuse"
	CategoryIPFlood      = "ip_flood"
)

// CheckEligibilityRequest carries the identifiers supplied at signup.
// Only the phone number is mandatory.
type CheckEligibilityRequest struct {
	Phone         string `json:"phone" binding:"required,msisdn"`
	NIN           string `json:"nin,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	DeviceID      string `json:"device_id,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
}

// EligibilityResult is the outcome of the ordered check pipeline
type EligibilityResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// AddToBlacklistRequest is an admin request to block a phone number
type AddToBlacklistRequest struct {
	Phone   string          `json:"phone" binding:"required,msisdn"`
	Reason  BlacklistReason `json:"reason" binding:"required,oneof=trial_used abuse_detected"`
	Notes   string          `json:"notes,omitempty"`
	AddedBy string          `json:"added_by" binding:"required"`
}

// AbuseStats summarizes recent abuse activity for the admin dashboard
type AbuseStats struct {
	WindowDays     int            `json:"window_days"`
	TotalAttempts  int            `json:"total_attempts"`
	TotalAbuseLogs int            `json:"total_abuse_logs"`
	ByCategory     map[string]int `json:"by_category"`
	BlacklistSize  int            `json:"blacklist_size"`
}
