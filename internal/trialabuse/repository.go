package trialabuse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles trial abuse data operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new trial abuse repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ RepositoryInterface = (*Repository)(nil)

// IsPhoneBlacklisted checks the blacklist for a normalized phone number
func (r *Repository) IsPhoneBlacklisted(ctx context.Context, phone string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trial_blacklist WHERE phone = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return exists, nil
}

// AddToBlacklist inserts a blacklist entry, ignoring an already-listed phone
func (r *Repository) AddToBlacklist(ctx context.Context, entry *BlacklistEntry) error {
	query := `
		INSERT INTO trial_blacklist (id, phone, reason, notes, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (phone) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.Phone, entry.Reason, entry.Notes, entry.AddedBy, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

// CountBlacklist returns the total number of blacklisted phones
func (r *Repository) CountBlacklist(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trial_blacklist`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count blacklist: %w", err)
	}
	return count, nil
}

// PhoneUsedTrial reports whether a subscription already exists for the phone.
// Cancelled subscriptions still count: the trial is consumed once, ever.
func (r *Repository) PhoneUsedTrial(ctx context.Context, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM driver_subscriptions s
			JOIN drivers d ON d.id = s.driver_id
			WHERE regexp_replace(d.phone, '[+ -]', '', 'g') = $1
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("phone trial lookup: %w", err)
	}
	return exists, nil
}

// NINHashExists checks a hashed national ID against verified drivers
func (r *Repository) NINHashExists(ctx context.Context, hash string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM driver_identities
			WHERE nin_hash = $1 AND verification_status IN ('approved', 'pending')
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, hash).Scan(&exists); err != nil {
		return false, fmt.Errorf("nin hash lookup: %w", err)
	}
	return exists, nil
}

// LicenseHashExists checks a hashed license number against verified drivers
func (r *Repository) LicenseHashExists(ctx context.Context, hash string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM driver_identities
			WHERE license_hash = $1 AND verification_status IN ('approved', 'pending')
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, hash).Scan(&exists); err != nil {
		return false, fmt.Errorf("license hash lookup: %w", err)
	}
	return exists, nil
}

// CountAccountsByDevice counts live accounts registered from a device
func (r *Repository) CountAccountsByDevice(ctx context.Context, deviceID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM driver_subscriptions s
		JOIN drivers d ON d.id = s.driver_id
		WHERE d.device_id = $1 AND s.status IN ('trial', 'active')
	`

	var count int
	if err := r.db.QueryRow(ctx, query, deviceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("device account count: %w", err)
	}
	return count, nil
}

// CountTrialAttemptsByIP counts trial attempts from an IP since a cutoff
func (r *Repository) CountTrialAttemptsByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM trial_attempts WHERE ip_address = $1 AND attempted_at >= $2`

	var count int
	if err := r.db.QueryRow(ctx, query, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("ip attempt count: %w", err)
	}
	return count, nil
}

// InsertTrialAttempt records a successful eligibility check
func (r *Repository) InsertTrialAttempt(ctx context.Context, attempt *TrialAttempt) error {
	query := `
		INSERT INTO trial_attempts (id, phone, device_id, ip_address, attempted_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		attempt.ID, attempt.Phone, attempt.DeviceID, attempt.IPAddress, attempt.AttemptedAt)
	if err != nil {
		return fmt.Errorf("insert trial attempt: %w", err)
	}
	return nil
}

// InsertAbuseLog writes an abuse audit entry
func (r *Repository) InsertAbuseLog(ctx context.Context, log *AbuseLog) error {
	query := `
		INSERT INTO abuse_logs (id, phone, category, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		log.ID, log.Phone, log.Category, log.Reason, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert abuse log: %w", err)
	}
	return nil
}

// CountTrialAttemptsSince counts all trial attempts since a cutoff
func (r *Repository) CountTrialAttemptsSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM trial_attempts WHERE attempted_at >= $1`

	var count int
	if err := r.db.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("attempt count: %w", err)
	}
	return count, nil
}

// CountAbuseLogsByCategory groups recent abuse logs by category
func (r *Repository) CountAbuseLogsByCategory(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT category, COUNT(*)
		FROM abuse_logs
		WHERE created_at >= $1
		GROUP BY category
	`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("abuse log counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan abuse log count: %w", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("abuse log counts: %w", err)
	}

	return counts, nil
}
