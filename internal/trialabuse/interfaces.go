package trialabuse

import (
	"context"
	"time"
)

// RepositoryInterface defines the persistence operations the eligibility
// checks depend on
type RepositoryInterface interface {
	// Blacklist
	IsPhoneBlacklisted(ctx context.Context, phone string) (bool, error)
	AddToBlacklist(ctx context.Context, entry *BlacklistEntry) error
	CountBlacklist(ctx context.Context) (int, error)

	// PhoneUsedTrial reports whether the normalized phone already belongs
	// to a subscription that has consumed its trial (trial, active, or any
	// post-trial status).
	PhoneUsedTrial(ctx context.Context, phone string) (bool, error)

	// Hashed identity lookups against verified drivers
	NINHashExists(ctx context.Context, hash string) (bool, error)
	LicenseHashExists(ctx context.Context, hash string) (bool, error)

	// Device and IP fingerprints
	CountAccountsByDevice(ctx context.Context, deviceID string) (int, error)
	CountTrialAttemptsByIP(ctx context.Context, ip string, since time.Time) (int, error)

	// Audit logs
	InsertTrialAttempt(ctx context.Context, attempt *TrialAttempt) error
	InsertAbuseLog(ctx context.Context, log *AbuseLog) error
	CountTrialAttemptsSince(ctx context.Context, since time.Time) (int, error)
	CountAbuseLogsByCategory(ctx context.Context, since time.Time) (map[string]int, error)
}
