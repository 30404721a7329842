package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/movaride/driver-lifecycle/internal/notify"
	"github.com/movaride/driver-lifecycle/pkg/common"
	"github.com/movaride/driver-lifecycle/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var suspensionsApplied = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "driver_suspensions_total",
		Help: "Automatic driver suspensions by action taken",
	},
	[]string{"action"},
)

// Config holds the score thresholds and window
type Config struct {
	WarningThreshold   int
	SuspendThreshold   int
	PermanentThreshold int
	SuspensionDays     int
	ScoreWindowDays    int
}

// driverLockCount stripes the per-driver mutexes. Serialization only has to
// hold within one process; cross-process writers converge through recompute.
const driverLockCount = 64

// Service owns report scoring and automatic suspension
type Service struct {
	repo     RepositoryInterface
	subs     SubscriptionGate
	notifier notify.Sender
	events   notify.Publisher
	cfg      Config
	now      func() time.Time

	driverLocks [driverLockCount]sync.Mutex
}

// NewService creates a new report scoring service
func NewService(repo RepositoryInterface, subs SubscriptionGate, notifier notify.Sender, events notify.Publisher, cfg Config) *Service {
	if cfg.WarningThreshold == 0 {
		cfg.WarningThreshold = 3
	}
	if cfg.SuspendThreshold == 0 {
		cfg.SuspendThreshold = 10
	}
	if cfg.PermanentThreshold == 0 {
		cfg.PermanentThreshold = 20
	}
	if cfg.SuspensionDays == 0 {
		cfg.SuspensionDays = 7
	}
	if cfg.ScoreWindowDays == 0 {
		cfg.ScoreWindowDays = 90
	}

	return &Service{
		repo:     repo,
		subs:     subs,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithNow overrides the clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) lockDriver(driverID uuid.UUID) *sync.Mutex {
	// uuid bytes hash well enough for stripe selection
	var h uint32
	for _, b := range driverID {
		h = h*31 + uint32(b)
	}
	return &s.driverLocks[h%driverLockCount]
}

// ========================================
// SUBMISSION
// ========================================

// SubmitReport validates and stores a rider's safety report, then
// recomputes the driver's score and applies any automatic action.
// Notifications and alerts are best-effort and never roll back the write.
func (s *Service) SubmitReport(ctx context.Context, driverID uuid.UUID, req *SubmitReportRequest) (*SubmitReportResponse, error) {
	linked, err := s.repo.TripExists(ctx, req.RiderID, driverID, req.TripID)
	if err != nil {
		return nil, common.NewUnavailableError("trip lookup failed", err)
	}
	if !linked {
		return nil, common.NewValidationError("no trip links this rider and driver", nil)
	}

	duplicate, err := s.repo.ReportExists(ctx, req.RiderID, driverID, req.TripID)
	if err != nil {
		return nil, common.NewUnavailableError("report lookup failed", err)
	}
	if duplicate {
		return nil, common.NewDuplicateError("this trip has already been reported by this rider")
	}

	severity := SeverityForCategory(req.Category)
	now := s.now()
	report := &DriverReport{
		ID:           uuid.New(),
		RiderID:      req.RiderID,
		DriverID:     driverID,
		TripID:       req.TripID,
		Category:     req.Category,
		Severity:     severity,
		Points:       PointsForSeverity(severity),
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
		Status:       ReportPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Scoring and threshold evaluation serialize per driver so two
	// simultaneous reports cannot both read a stale total.
	lock := s.lockDriver(driverID)
	lock.Lock()

	if err := s.repo.CreateReport(ctx, report); err != nil {
		lock.Unlock()
		return nil, common.NewUnavailableError("failed to store report", err)
	}

	score, err := s.recomputeScoreLocked(ctx, driverID)
	if err != nil {
		lock.Unlock()
		logger.WithContext(ctx).Error("score recompute failed after report write",
			zap.String("driver_id", driverID.String()), zap.Error(err))
		return &SubmitReportResponse{Report: report, ActionTaken: ActionNone}, nil
	}

	action, err := s.applyAutomaticActions(ctx, driverID, score.ReportPoints)
	lock.Unlock()
	if err != nil {
		logger.WithContext(ctx).Error("automatic action failed",
			zap.String("driver_id", driverID.String()), zap.Error(err))
		action = ActionNone
	}

	// Side effects happen outside the lock.
	s.notifyDriver(ctx, driverID, report, action)
	if severity == SeverityHigh || severity == SeverityCritical {
		s.raiseAdminAlert(ctx, report, score.ReportPoints)
	}

	logger.WithContext(ctx).Info("report submitted",
		zap.String("report_id", report.ID.String()),
		zap.String("driver_id", driverID.String()),
		zap.String("category", req.Category),
		zap.String("severity", string(severity)),
		zap.Int("score_points", score.ReportPoints),
		zap.String("action", action),
	)

	return &SubmitReportResponse{
		Report:      report,
		ScorePoints: score.ReportPoints,
		ActionTaken: action,
	}, nil
}

// ========================================
// SCORING
// ========================================

// RecomputeScore rebuilds a driver's rolling score from report history.
// Idempotent: the same unresolved report set always yields the same score.
func (s *Service) RecomputeScore(ctx context.Context, driverID uuid.UUID) (*DriverSafetyScore, error) {
	lock := s.lockDriver(driverID)
	lock.Lock()
	defer lock.Unlock()
	return s.recomputeScoreLocked(ctx, driverID)
}

func (s *Service) recomputeScoreLocked(ctx context.Context, driverID uuid.UUID) (*DriverSafetyScore, error) {
	windowStart := s.now().AddDate(0, 0, -s.cfg.ScoreWindowDays)

	points, count, err := s.repo.SumUnresolvedPoints(ctx, driverID, windowStart)
	if err != nil {
		return nil, err
	}

	score := &DriverSafetyScore{
		DriverID:     driverID,
		ReportPoints: points,
		TotalReports: count,
		LastUpdated:  s.now(),
	}
	if err := s.repo.UpsertSafetyScore(ctx, score); err != nil {
		return nil, err
	}

	return score, nil
}

// applyAutomaticActions evaluates thresholds highest-first so a driver who
// jumps past several thresholds in one submission receives only the single
// highest applicable action.
func (s *Service) applyAutomaticActions(ctx context.Context, driverID uuid.UUID, points int) (string, error) {
	switch {
	case points >= s.cfg.PermanentThreshold:
		if err := s.suspend(ctx, driverID, nil, true,
			fmt.Sprintf("report points reached %d (permanent threshold %d)", points, s.cfg.PermanentThreshold)); err != nil {
			return ActionNone, err
		}
		suspensionsApplied.WithLabelValues(ActionPermanentSuspension).Inc()
		return ActionPermanentSuspension, nil

	case points >= s.cfg.SuspendThreshold:
		end := s.now().AddDate(0, 0, s.cfg.SuspensionDays)
		if err := s.suspend(ctx, driverID, &end, false,
			fmt.Sprintf("report points reached %d (suspension threshold %d)", points, s.cfg.SuspendThreshold)); err != nil {
			return ActionNone, err
		}
		suspensionsApplied.WithLabelValues(ActionSuspension7Day).Inc()
		return ActionSuspension7Day, nil

	case points >= s.cfg.WarningThreshold:
		suspensionsApplied.WithLabelValues(ActionWarning).Inc()
		return ActionWarning, nil

	default:
		return ActionNone, nil
	}
}

func (s *Service) suspend(ctx context.Context, driverID uuid.UUID, end *time.Time, permanent bool, reason string) error {
	// New suspension supersedes any active one.
	if err := s.repo.LiftActiveSuspensions(ctx, driverID); err != nil {
		return err
	}

	suspension := &DriverSuspension{
		ID:            uuid.New(),
		DriverID:      driverID,
		Reason:        reason,
		SuspendedAt:   s.now(),
		SuspendedBy:   "system",
		SuspensionEnd: end,
		IsPermanent:   permanent,
		Status:        SuspensionActive,
	}
	if err := s.repo.CreateSuspension(ctx, suspension); err != nil {
		return err
	}

	if s.subs != nil {
		if err := s.subs.MarkSuspended(ctx, driverID, end, false); err != nil {
			return err
		}
	}

	return nil
}

// ========================================
// REVIEW
// ========================================

// ReviewReport applies an admin decision. Resolving or dismissing a report
// removes it from the rolling score, so the score is recomputed after.
func (s *Service) ReviewReport(ctx context.Context, reportID uuid.UUID, req *ReviewReportRequest) (*DriverReport, error) {
	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("report not found", err)
		}
		return nil, common.NewUnavailableError("report lookup failed", err)
	}

	if report.Status == ReportResolved || report.Status == ReportDismissed {
		return nil, common.NewValidationError("report is already finalized", nil)
	}

	if err := s.repo.UpdateReportReview(ctx, reportID, req.Status, req.ReviewerID, req.Notes); err != nil {
		return nil, common.NewUnavailableError("failed to update report", err)
	}

	if req.Status == ReportResolved || req.Status == ReportDismissed {
		if _, err := s.RecomputeScore(ctx, report.DriverID); err != nil {
			logger.WithContext(ctx).Error("score recompute failed after review",
				zap.String("driver_id", report.DriverID.String()), zap.Error(err))
		}
	}

	return s.repo.GetReport(ctx, reportID)
}

// ========================================
// QUERIES
// ========================================

// GetDriverScore returns the current rolling score for a driver,
// together with the active suspension when one is in force
func (s *Service) GetDriverScore(ctx context.Context, driverID uuid.UUID) (*DriverScoreView, error) {
	score, err := s.repo.GetSafetyScore(ctx, driverID)
	if err != nil {
		return nil, common.NewUnavailableError("score lookup failed", err)
	}

	view := &DriverScoreView{Score: score}

	suspension, err := s.repo.GetActiveSuspension(ctx, driverID)
	if err != nil && err != ErrNotFound {
		return nil, common.NewUnavailableError("suspension lookup failed", err)
	}
	if err == nil {
		view.ActiveSuspension = suspension
	}

	return view, nil
}

// ListReportsForDriver lists reports filed against a driver
func (s *Service) ListReportsForDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*DriverReport, error) {
	reports, err := s.repo.ListReportsByDriver(ctx, driverID, limit, offset)
	if err != nil {
		return nil, common.NewUnavailableError("report list failed", err)
	}
	return reports, nil
}

// ListPendingReports lists reports awaiting review, for the admin queue
func (s *Service) ListPendingReports(ctx context.Context, limit, offset int) ([]*DriverReport, error) {
	reports, err := s.repo.ListPendingReports(ctx, limit, offset)
	if err != nil {
		return nil, common.NewUnavailableError("report list failed", err)
	}
	return reports, nil
}

// ========================================
// SIDE EFFECTS (best-effort)
// ========================================

func (s *Service) notifyDriver(ctx context.Context, driverID uuid.UUID, report *DriverReport, action string) {
	if s.notifier == nil {
		return
	}

	body := "A safety report has been filed regarding one of your recent trips."
	priority := notify.PriorityNormal
	switch action {
	case ActionWarning:
		body = "A safety report has been filed against you. Further reports may lead to suspension."
		priority = notify.PriorityHigh
	case ActionSuspension7Day:
		body = "Your account has been suspended for 7 days following safety reports."
		priority = notify.PriorityUrgent
	case ActionPermanentSuspension:
		body = "Your account has been permanently suspended following safety reports."
		priority = notify.PriorityUrgent
	}

	if err := s.notifier.Send(ctx, driverID.String(), "Safety report", body, priority); err != nil {
		logger.WithContext(ctx).Warn("driver notification failed",
			zap.String("driver_id", driverID.String()), zap.Error(err))
	}
}

func (s *Service) raiseAdminAlert(ctx context.Context, report *DriverReport, points int) {
	if s.events == nil {
		return
	}

	event := notify.Event{
		Subject:    notify.SubjectAdminAlert,
		DriverID:   report.DriverID.String(),
		OccurredAt: s.now(),
		Payload: map[string]interface{}{
			"report_id":    report.ID.String(),
			"category":     report.Category,
			"severity":     string(report.Severity),
			"score_points": points,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("admin alert publish failed",
			zap.String("report_id", report.ID.String()), zap.Error(err))
	}
}
