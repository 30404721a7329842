package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the persistence operations the subscription
// service needs. Used for testing and dependency injection.
type RepositoryInterface interface {
	CreateSubscription(ctx context.Context, sub *DriverSubscription) error
	GetByDriver(ctx context.Context, driverID uuid.UUID) (*DriverSubscription, error)
	GetByReferralCode(ctx context.Context, code string) (*DriverSubscription, error)
	Update(ctx context.Context, sub *DriverSubscription) error
	CountByPhase(ctx context.Context, phase Phase) (int, error)
	ListWithPaymentDue(ctx context.Context) ([]*DriverSubscription, error)

	InsertReferralCredit(ctx context.Context, credit *ReferralCredit) error
	CountReferralCreditsBetween(ctx context.Context, referrerID uuid.UUID, from, to time.Time) (int, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
