package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a report or score lookup finds nothing
var ErrNotFound = errors.New("record not found")

// Repository handles report and suspension data operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new reports repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// TripExists checks that a trip links exactly this rider and driver
func (r *Repository) TripExists(ctx context.Context, riderID, driverID, tripID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM trips
			WHERE id = $1 AND rider_id = $2 AND driver_id = $3
		)
	`
	if err := r.db.QueryRow(ctx, query, tripID, riderID, driverID).Scan(&exists); err != nil {
		return false, fmt.Errorf("trip lookup: %w", err)
	}
	return exists, nil
}

// ReportExists checks for a prior report on the (rider, driver, trip) triple
func (r *Repository) ReportExists(ctx context.Context, riderID, driverID, tripID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM driver_reports
			WHERE rider_id = $1 AND driver_id = $2 AND trip_id = $3
		)
	`
	if err := r.db.QueryRow(ctx, query, riderID, driverID, tripID).Scan(&exists); err != nil {
		return false, fmt.Errorf("report lookup: %w", err)
	}
	return exists, nil
}

// CreateReport inserts a new report
func (r *Repository) CreateReport(ctx context.Context, report *DriverReport) error {
	query := `
		INSERT INTO driver_reports (
			id, rider_id, driver_id, trip_id, category, severity, points,
			description, evidence_urls, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		report.ID,
		report.RiderID,
		report.DriverID,
		report.TripID,
		report.Category,
		report.Severity,
		report.Points,
		report.Description,
		report.EvidenceURLs,
		report.Status,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

const reportColumns = `
	id, rider_id, driver_id, trip_id, category, severity, points,
	description, evidence_urls, status, reviewed_by, reviewed_at,
	resolution_notes, created_at, updated_at
`

func scanReport(row pgx.Row) (*DriverReport, error) {
	var report DriverReport

	err := row.Scan(
		&report.ID,
		&report.RiderID,
		&report.DriverID,
		&report.TripID,
		&report.Category,
		&report.Severity,
		&report.Points,
		&report.Description,
		&report.EvidenceURLs,
		&report.Status,
		&report.ReviewedBy,
		&report.ReviewedAt,
		&report.ResolutionNotes,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	return &report, nil
}

// GetReport retrieves a report by ID
func (r *Repository) GetReport(ctx context.Context, reportID uuid.UUID) (*DriverReport, error) {
	query := `SELECT ` + reportColumns + ` FROM driver_reports WHERE id = $1`
	return scanReport(r.db.QueryRow(ctx, query, reportID))
}

// UpdateReportReview applies a review decision to a report
func (r *Repository) UpdateReportReview(ctx context.Context, reportID uuid.UUID, status ReportStatus, reviewedBy uuid.UUID, notes string) error {
	query := `
		UPDATE driver_reports
		SET status = $2,
		    reviewed_by = $3,
		    reviewed_at = NOW(),
		    resolution_notes = NULLIF($4, ''),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, reportID, status, reviewedBy, notes)
	if err != nil {
		return fmt.Errorf("update report review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) listReports(ctx context.Context, query string, args ...interface{}) ([]*DriverReport, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*DriverReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ListReportsByDriver lists reports filed against a driver, newest first
func (r *Repository) ListReportsByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*DriverReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM driver_reports
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.listReports(ctx, query, driverID, limit, offset)
}

// ListPendingReports lists reports awaiting review, most severe first
func (r *Repository) ListPendingReports(ctx context.Context, limit, offset int) ([]*DriverReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM driver_reports
		WHERE status IN ('pending', 'under_review')
		ORDER BY points DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.listReports(ctx, query, limit, offset)
}

// SumUnresolvedPoints sums report points for a driver over unresolved
// reports created since the window start.
func (r *Repository) SumUnresolvedPoints(ctx context.Context, driverID uuid.UUID, since time.Time) (int, int, error) {
	var points, count int
	query := `
		SELECT COALESCE(SUM(points), 0), COUNT(*)
		FROM driver_reports
		WHERE driver_id = $1
		  AND status IN ('pending', 'under_review')
		  AND created_at >= $2
	`
	if err := r.db.QueryRow(ctx, query, driverID, since).Scan(&points, &count); err != nil {
		return 0, 0, fmt.Errorf("sum unresolved points: %w", err)
	}
	return points, count, nil
}

// UpsertSafetyScore writes the recomputed score for a driver
func (r *Repository) UpsertSafetyScore(ctx context.Context, score *DriverSafetyScore) error {
	query := `
		INSERT INTO driver_safety_scores (driver_id, report_points, total_reports, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (driver_id) DO UPDATE SET
			report_points = EXCLUDED.report_points,
			total_reports = EXCLUDED.total_reports,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.Exec(ctx, query, score.DriverID, score.ReportPoints, score.TotalReports, score.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert safety score: %w", err)
	}

	return nil
}

// GetSafetyScore retrieves a driver's score. A driver with no score record
// is returned as zero points rather than an error.
func (r *Repository) GetSafetyScore(ctx context.Context, driverID uuid.UUID) (*DriverSafetyScore, error) {
	var score DriverSafetyScore
	query := `
		SELECT driver_id, report_points, total_reports, last_updated
		FROM driver_safety_scores
		WHERE driver_id = $1
	`

	err := r.db.QueryRow(ctx, query, driverID).Scan(
		&score.DriverID,
		&score.ReportPoints,
		&score.TotalReports,
		&score.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &DriverSafetyScore{DriverID: driverID}, nil
		}
		return nil, fmt.Errorf("get safety score: %w", err)
	}

	return &score, nil
}

// CreateSuspension appends a suspension audit record
func (r *Repository) CreateSuspension(ctx context.Context, suspension *DriverSuspension) error {
	query := `
		INSERT INTO driver_suspensions (
			id, driver_id, reason, suspended_at, suspended_by,
			suspension_end, is_permanent, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		suspension.ID,
		suspension.DriverID,
		suspension.Reason,
		suspension.SuspendedAt,
		suspension.SuspendedBy,
		suspension.SuspensionEnd,
		suspension.IsPermanent,
		suspension.Status,
	)
	if err != nil {
		return fmt.Errorf("insert suspension: %w", err)
	}

	return nil
}

// LiftActiveSuspensions marks any active suspension for the driver as
// lifted. A new suspension supersedes the old one, keeping at most one
// active record per driver.
func (r *Repository) LiftActiveSuspensions(ctx context.Context, driverID uuid.UUID) error {
	query := `UPDATE driver_suspensions SET status = 'lifted' WHERE driver_id = $1 AND status = 'active'`

	if _, err := r.db.Exec(ctx, query, driverID); err != nil {
		return fmt.Errorf("lift suspensions: %w", err)
	}

	return nil
}

// GetActiveSuspension retrieves the driver's active suspension, if any
func (r *Repository) GetActiveSuspension(ctx context.Context, driverID uuid.UUID) (*DriverSuspension, error) {
	var suspension DriverSuspension
	query := `
		SELECT id, driver_id, reason, suspended_at, suspended_by,
		       suspension_end, is_permanent, status
		FROM driver_suspensions
		WHERE driver_id = $1 AND status = 'active'
		ORDER BY suspended_at DESC
		LIMIT 1
	`

	err := r.db.QueryRow(ctx, query, driverID).Scan(
		&suspension.ID,
		&suspension.DriverID,
		&suspension.Reason,
		&suspension.SuspendedAt,
		&suspension.SuspendedBy,
		&suspension.SuspensionEnd,
		&suspension.IsPermanent,
		&suspension.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active suspension: %w", err)
	}

	return &suspension, nil
}
