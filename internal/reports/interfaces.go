package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the persistence operations the report service
// needs. Used for testing and dependency injection.
type RepositoryInterface interface {
	// Trip linkage
	TripExists(ctx context.Context, riderID, driverID, tripID uuid.UUID) (bool, error)

	// Reports
	ReportExists(ctx context.Context, riderID, driverID, tripID uuid.UUID) (bool, error)
	CreateReport(ctx context.Context, report *DriverReport) error
	GetReport(ctx context.Context, reportID uuid.UUID) (*DriverReport, error)
	UpdateReportReview(ctx context.Context, reportID uuid.UUID, status ReportStatus, reviewedBy uuid.UUID, notes string) error
	ListReportsByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*DriverReport, error)
	ListPendingReports(ctx context.Context, limit, offset int) ([]*DriverReport, error)

	// Scores: sum of points over unresolved reports inside the window
	SumUnresolvedPoints(ctx context.Context, driverID uuid.UUID, since time.Time) (points, count int, err error)
	UpsertSafetyScore(ctx context.Context, score *DriverSafetyScore) error
	GetSafetyScore(ctx context.Context, driverID uuid.UUID) (*DriverSafetyScore, error)

	// Suspensions
	CreateSuspension(ctx context.Context, suspension *DriverSuspension) error
	LiftActiveSuspensions(ctx context.Context, driverID uuid.UUID) error
	GetActiveSuspension(ctx context.Context, driverID uuid.UUID) (*DriverSuspension, error)
}

// SubscriptionGate is the hook into the subscription state machine used to
// flip account standing when a suspension fires.
type SubscriptionGate interface {
	MarkSuspended(ctx context.Context, driverID uuid.UUID, until *time.Time, requireReconnectionFee bool) error
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
