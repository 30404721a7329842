package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no subscription exists for the lookup key
var ErrNotFound = errors.New("subscription not found")

// Repository handles subscription data operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new subscription repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const subscriptionColumns = `
	id, driver_id, status, phase, price_minor,
	trial_start, trial_trips_count,
	subscription_start, subscription_end, last_payment_date, next_payment_due,
	reconnection_fee_required, suspended_until,
	referral_code, referred_by, referral_count_this_month, free_months_earned,
	total_trips, acceptance_rate, cancellation_rate, average_rating,
	created_at, updated_at
`

// CreateSubscription inserts a new subscription record
func (r *Repository) CreateSubscription(ctx context.Context, sub *DriverSubscription) error {
	query := `
		INSERT INTO driver_subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.DriverID,
		sub.Status,
		sub.Phase,
		sub.PriceMinor,
		sub.TrialStart,
		sub.TrialTripsCount,
		sub.SubscriptionStart,
		sub.SubscriptionEnd,
		sub.LastPaymentDate,
		sub.NextPaymentDue,
		sub.ReconnectionFeeRequired,
		sub.SuspendedUntil,
		sub.ReferralCode,
		sub.ReferredBy,
		sub.ReferralCountThisMonth,
		sub.FreeMonthsEarned,
		sub.TotalTrips,
		sub.AcceptanceRate,
		sub.CancellationRate,
		sub.AverageRating,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

func scanSubscription(row pgx.Row) (*DriverSubscription, error) {
	var sub DriverSubscription

	err := row.Scan(
		&sub.ID,
		&sub.DriverID,
		&sub.Status,
		&sub.Phase,
		&sub.PriceMinor,
		&sub.TrialStart,
		&sub.TrialTripsCount,
		&sub.SubscriptionStart,
		&sub.SubscriptionEnd,
		&sub.LastPaymentDate,
		&sub.NextPaymentDue,
		&sub.ReconnectionFeeRequired,
		&sub.SuspendedUntil,
		&sub.ReferralCode,
		&sub.ReferredBy,
		&sub.ReferralCountThisMonth,
		&sub.FreeMonthsEarned,
		&sub.TotalTrips,
		&sub.AcceptanceRate,
		&sub.CancellationRate,
		&sub.AverageRating,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	return &sub, nil
}

// GetByDriver retrieves a driver's subscription
func (r *Repository) GetByDriver(ctx context.Context, driverID uuid.UUID) (*DriverSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM driver_subscriptions WHERE driver_id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, driverID))
}

// GetByReferralCode retrieves a subscription by its referral code
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*DriverSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM driver_subscriptions WHERE referral_code = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, code))
}

// Update persists the mutable fields of a subscription
func (r *Repository) Update(ctx context.Context, sub *DriverSubscription) error {
	query := `
		UPDATE driver_subscriptions
		SET status = $2,
		    price_minor = $3,
		    trial_trips_count = $4,
		    subscription_start = $5,
		    subscription_end = $6,
		    last_payment_date = $7,
		    next_payment_due = $8,
		    reconnection_fee_required = $9,
		    suspended_until = $10,
		    referral_count_this_month = $11,
		    free_months_earned = $12,
		    total_trips = $13,
		    acceptance_rate = $14,
		    cancellation_rate = $15,
		    average_rating = $16,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.Status,
		sub.PriceMinor,
		sub.TrialTripsCount,
		sub.SubscriptionStart,
		sub.SubscriptionEnd,
		sub.LastPaymentDate,
		sub.NextPaymentDue,
		sub.ReconnectionFeeRequired,
		sub.SuspendedUntil,
		sub.ReferralCountThisMonth,
		sub.FreeMonthsEarned,
		sub.TotalTrips,
		sub.AcceptanceRate,
		sub.CancellationRate,
		sub.AverageRating,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	return nil
}

// CountByPhase counts subscriptions signed up in a given pricing phase
func (r *Repository) CountByPhase(ctx context.Context, phase Phase) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM driver_subscriptions WHERE phase = $1`
	if err := r.db.QueryRow(ctx, query, phase).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by phase: %w", err)
	}
	return count, nil
}

// ListWithPaymentDue lists subscriptions with a due date set that are still
// in a payable state. Cancelled and trial subscriptions are excluded.
func (r *Repository) ListWithPaymentDue(ctx context.Context) ([]*DriverSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM driver_subscriptions
		WHERE next_payment_due IS NOT NULL
		  AND status IN ('active', 'limited')
		ORDER BY next_payment_due
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payment due: %w", err)
	}
	defer rows.Close()

	subs := make([]*DriverSubscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// InsertReferralCredit records one granted referral reward
func (r *Repository) InsertReferralCredit(ctx context.Context, credit *ReferralCredit) error {
	query := `
		INSERT INTO referral_credits (id, referrer_id, referee_id, granted_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, credit.ID, credit.ReferrerID, credit.RefereeID, credit.GrantedAt)
	if err != nil {
		return fmt.Errorf("insert referral credit: %w", err)
	}

	return nil
}

// CountReferralCreditsBetween counts credits granted to a referrer in a window
func (r *Repository) CountReferralCreditsBetween(ctx context.Context, referrerID uuid.UUID, from, to time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM referral_credits
		WHERE referrer_id = $1 AND granted_at >= $2 AND granted_at < $3
	`
	if err := r.db.QueryRow(ctx, query, referrerID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count referral credits: %w", err)
	}
	return count, nil
}
