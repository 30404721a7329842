package reports

import (
	"time"

	"github.com/google/uuid"
)

// Severity of a safety report
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ReportStatus tracks a report through review
type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportUnderReview ReportStatus = "under_review"
	ReportResolved    ReportStatus = "resolved"
	ReportDismissed   ReportStatus = "dismissed"
)

// categorySeverity maps report categories to severities. Unmapped categories
// default to medium. Kept as data so thresholds stay independently testable.
var categorySeverity = map[string]Severity{
	"reckless_driving":    SeverityCritical,
	"intoxicated_driving": SeverityCritical,
	"assault":             SeverityCritical,
	"harassment":          SeverityHigh,
	"unsafe_vehicle":      SeverityHigh,
	"route_manipulation":  SeverityMedium,
	"overcharging":        SeverityMedium,
	"rude_behavior":       SeverityMedium,
	"unprofessional":      SeverityLow,
	"vehicle_cleanliness": SeverityLow,
}

// severityPoints weights severities for the rolling driver score
var severityPoints = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   3,
	SeverityHigh:     5,
	SeverityCritical: 10,
}

// SeverityForCategory resolves a category to its severity
func SeverityForCategory(category string) Severity {
	if sev, ok := categorySeverity[category]; ok {
		return sev
	}
	return SeverityMedium
}

// PointsForSeverity resolves a severity to its score weight
func PointsForSeverity(sev Severity) int {
	if pts, ok := severityPoints[sev]; ok {
		return pts
	}
	return severityPoints[SeverityMedium]
}

// DriverReport is one rider submission against a driver for a trip.
// Immutable once created except for the review fields.
type DriverReport struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	RiderID      uuid.UUID    `json:"rider_id" db:"rider_id"`
	DriverID     uuid.UUID    `json:"driver_id" db:"driver_id"`
	TripID       uuid.UUID    `json:"trip_id" db:"trip_id"`
	Category     string       `json:"category" db:"category"`
	Severity     Severity     `json:"severity" db:"severity"`
	Points       int          `json:"points" db:"points"`
	Description  string       `json:"description" db:"description"`
	EvidenceURLs []string     `json:"evidence_urls,omitempty" db:"evidence_urls"`
	Status       ReportStatus `json:"status" db:"status"`

	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ResolutionNotes *string    `json:"resolution_notes,omitempty" db:"resolution_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DriverSafetyScore is the derived rolling score for a driver. It is always
// recomputed from the report history, never incrementally trusted.
type DriverSafetyScore struct {
	DriverID     uuid.UUID `json:"driver_id" db:"driver_id"`
	ReportPoints int       `json:"report_points" db:"report_points"`
	TotalReports int       `json:"total_reports" db:"total_reports"`
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
}

// DriverScoreView pairs the rolling score with the active suspension,
// if one exists, for the standing endpoint
type DriverScoreView struct {
	Score            *DriverSafetyScore `json:"score"`
	ActiveSuspension *DriverSuspension  `json:"active_suspension,omitempty"`
}

// SuspensionStatus of an audit record
type SuspensionStatus string

const (
	SuspensionActive SuspensionStatus = "active"
	SuspensionLifted SuspensionStatus = "lifted"
)

// DriverSuspension is an append-only audit record. A nil SuspensionEnd with
// IsPermanent set means the ban has no scheduled end.
type DriverSuspension struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	DriverID      uuid.UUID        `json:"driver_id" db:"driver_id"`
	Reason        string           `json:"reason" db:"reason"`
	SuspendedAt   time.Time        `json:"suspended_at" db:"suspended_at"`
	SuspendedBy   string           `json:"suspended_by" db:"suspended_by"` // "system" or admin identity
	SuspensionEnd *time.Time       `json:"suspension_end,omitempty" db:"suspension_end"`
	IsPermanent   bool             `json:"is_permanent" db:"is_permanent"`
	Status        SuspensionStatus `json:"status" db:"status"`
}

// Automatic actions taken after a score recompute
const (
	ActionNone                = "none"
	ActionWarning             = "warning"
	ActionSuspension7Day      = "suspension_7_day"
	ActionPermanentSuspension = "permanent_suspension"
)

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// SubmitReportRequest is a rider's safety report submission
type SubmitReportRequest struct {
	RiderID      uuid.UUID `json:"rider_id" binding:"required"`
	TripID       uuid.UUID `json:"trip_id" binding:"required"`
	Category     string    `json:"category" binding:"required"`
	Description  string    `json:"description" binding:"required"`
	EvidenceURLs []string  `json:"evidence_urls,omitempty"`
}

// SubmitReportResponse returns the stored report and any action triggered
type SubmitReportResponse struct {
	Report      *DriverReport `json:"report"`
	ScorePoints int           `json:"score_points"`
	ActionTaken string        `json:"action_taken"`
}

// ReviewReportRequest is an admin review decision
type ReviewReportRequest struct {
	ReviewerID uuid.UUID    `json:"reviewer_id" binding:"required"`
	Status     ReportStatus `json:"status" binding:"required,oneof=under_review resolved dismissed"`
	Notes      string       `json:"notes,omitempty"`
}
