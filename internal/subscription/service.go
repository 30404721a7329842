package subscription

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/movaride/driver-lifecycle/internal/notify"
	"github.com/movaride/driver-lifecycle/pkg/common"
	"github.com/movaride/driver-lifecycle/pkg/logger"
	"go.uber.org/zap"
)

// Config holds service configuration
type Config struct {
	CurrentPhase        Phase
	LaunchDriverCap     int
	ReconnectionFee     int64
	BillingCycleDays    int
	TrialMaxHours       int
	TrialMaxTrips       int
	ReferralTripsNeeded int
	ReferralMonthlyCap  int
}

// Service owns the driver subscription state machine
type Service struct {
	repo     RepositoryInterface
	notifier notify.Sender
	events   notify.Publisher
	cfg      Config
	now      func() time.Time
}

// NewService creates a new subscription service
func NewService(repo RepositoryInterface, notifier notify.Sender, events notify.Publisher, cfg Config) *Service {
	if cfg.CurrentPhase == "" {
		cfg.CurrentPhase = PhaseLaunch
	}
	if cfg.LaunchDriverCap == 0 {
		cfg.LaunchDriverCap = 500
	}
	if cfg.ReconnectionFee == 0 {
		cfg.ReconnectionFee = 2000
	}
	if cfg.BillingCycleDays == 0 {
		cfg.BillingCycleDays = 30
	}
	if cfg.TrialMaxHours == 0 {
		cfg.TrialMaxHours = 24
	}
	if cfg.TrialMaxTrips == 0 {
		cfg.TrialMaxTrips = 3
	}
	if cfg.ReferralTripsNeeded == 0 {
		cfg.ReferralTripsNeeded = 20
	}
	if cfg.ReferralMonthlyCap == 0 {
		cfg.ReferralMonthlyCap = 5
	}

	return &Service{
		repo:     repo,
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

// ========================================
// REGISTRATION
// ========================================

// RegisterTrial creates a trial subscription for a newly approved driver.
// Eligibility screening happens in the trialabuse package before this runs.
func (s *Service) RegisterTrial(ctx context.Context, req *RegisterTrialRequest) (*DriverSubscription, error) {
	if existing, err := s.repo.GetByDriver(ctx, req.DriverID); err == nil && existing != nil {
		return nil, common.NewDuplicateError("driver already has a subscription")
	} else if err != nil && err != ErrNotFound {
		return nil, common.NewUnavailableError("subscription lookup failed", err)
	}

	referredBy, err := s.resolveReferrer(ctx, req)
	if err != nil {
		return nil, err
	}

	phase, err := s.signupPhase(ctx)
	if err != nil {
		return nil, common.NewUnavailableError("phase lookup failed", err)
	}

	code, err := generateReferralCode()
	if err != nil {
		return nil, common.NewInternalServerError("failed to generate referral code")
	}

	now := s.now()
	trialStart := now
	sub := &DriverSubscription{
		ID:           uuid.New(),
		DriverID:     req.DriverID,
		Status:       StatusTrial,
		Phase:        phase,
		PriceMinor:   PriceForPhase(phase),
		TrialStart:   &trialStart,
		ReferralCode: code,
		ReferredBy:   referredBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, common.NewUnavailableError("failed to create subscription", err)
	}

	logger.WithContext(ctx).Info("trial subscription created",
		zap.String("driver_id", req.DriverID.String()),
		zap.String("phase", string(phase)),
	)

	return sub, nil
}

// resolveReferrer turns a referral code into the referrer's driver id.
// Codes are stored uppercase, so lookup normalizes the input the same way.
func (s *Service) resolveReferrer(ctx context.Context, req *RegisterTrialRequest) (*uuid.UUID, error) {
	if req.ReferralCode == "" {
		return req.ReferredBy, nil
	}

	code := strings.ToUpper(strings.TrimSpace(req.ReferralCode))
	referrer, err := s.repo.GetByReferralCode(ctx, code)
	if err == ErrNotFound {
		return nil, common.NewValidationError("unknown referral code", nil)
	} else if err != nil {
		return nil, common.NewUnavailableError("referral lookup failed", err)
	}
	if referrer.DriverID == req.DriverID {
		return nil, common.NewValidationError("drivers cannot redeem their own referral code", nil)
	}

	return &referrer.DriverID, nil
}

// signupPhase resolves the pricing phase for a new signup. Launch pricing is
// capped by driver count; once the cap is reached the operations-configured
// phase applies.
func (s *Service) signupPhase(ctx context.Context) (Phase, error) {
	if s.cfg.CurrentPhase != PhaseLaunch {
		return s.cfg.CurrentPhase, nil
	}

	count, err := s.repo.CountByPhase(ctx, PhaseLaunch)
	if err != nil {
		return "", err
	}
	if count >= s.cfg.LaunchDriverCap {
		return PhaseEarly, nil
	}
	return PhaseLaunch, nil
}

// ========================================
// STANDING EVALUATION (pure of store state)
// ========================================

// CheckTrialStatus evaluates a trial against the time and trip limits.
// Time expiry is checked before trip expiry, so a trial that is past both
// limits reports the time reason.
func (s *Service) CheckTrialStatus(trialStart time.Time, tripsCompleted int) TrialStatus {
	now := s.now()
	elapsed := now.Sub(trialStart)
	hoursElapsed := elapsed.Hours()
	maxDuration := time.Duration(s.cfg.TrialMaxHours) * time.Hour

	status := TrialStatus{
		HoursElapsed:   hoursElapsed,
		TimeRemaining:  maxDuration - elapsed,
		TripsRemaining: s.cfg.TrialMaxTrips - tripsCompleted,
	}
	if status.TimeRemaining < 0 {
		status.TimeRemaining = 0
	}
	if status.TripsRemaining < 0 {
		status.TripsRemaining = 0
	}

	if hoursElapsed >= float64(s.cfg.TrialMaxHours) {
		status.IsExpired = true
		status.ExpiryReason = TrialExpiryTime
		return status
	}
	if tripsCompleted >= s.cfg.TrialMaxTrips {
		status.IsExpired = true
		status.ExpiryReason = TrialExpiryTrips
	}
	return status
}

// daysUntil computes whole days from now to due, truncating toward zero.
// A due date less than 24 hours away therefore counts as 0 days and is
// classified on the overdue side, entering the limited-access grace window.
func daysUntil(due, now time.Time) int {
	return int(due.Sub(now).Hours() / 24)
}

// CheckPaymentStatus evaluates a subscription's payment standing
func (s *Service) CheckPaymentStatus(sub *DriverSubscription) PaymentStatus {
	if sub.NextPaymentDue == nil {
		return PaymentStatus{Status: PaymentNoDue, Message: "No payment currently due."}
	}

	now := s.now()
	due := *sub.NextPaymentDue
	daysUntilDue := daysUntil(due, now)

	if daysUntilDue > 0 {
		return PaymentStatus{
			Status:       PaymentActive,
			AmountDue:    sub.PriceMinor,
			Message:      fmt.Sprintf("Payment of %d due in %d day(s).", sub.PriceMinor, daysUntilDue),
			DaysUntilDue: daysUntilDue,
			DueDate:      sub.NextPaymentDue,
		}
	}

	daysOverdue := -daysUntilDue
	switch {
	case daysOverdue <= 3:
		return PaymentStatus{
			Status:      PaymentLimited,
			AmountDue:   sub.PriceMinor,
			Message:     "Payment overdue. Access limited to accepting rides.",
			DaysOverdue: daysOverdue,
			DueDate:     sub.NextPaymentDue,
		}
	case daysOverdue <= 7:
		return PaymentStatus{
			Status:      PaymentWarning,
			AmountDue:   sub.PriceMinor,
			Message:     fmt.Sprintf("Payment %d days overdue. Suspension in %d day(s).", daysOverdue, 8-daysOverdue),
			DaysOverdue: daysOverdue,
			DueDate:     sub.NextPaymentDue,
		}
	default:
		return PaymentStatus{
			Status:      PaymentSuspended,
			AmountDue:   sub.PriceMinor + s.cfg.ReconnectionFee,
			Message:     "Account suspended for non-payment. Amount due includes the reconnection fee.",
			DaysOverdue: daysOverdue,
			DueDate:     sub.NextPaymentDue,
		}
	}
}

// CheckDriverAccess composes trial and payment standing into one decision
func (s *Service) CheckDriverAccess(sub *DriverSubscription) AccessDecision {
	switch sub.Status {
	case StatusCancelled:
		return AccessDecision{Granted: false, Level: AccessNone, Reason: "subscription_cancelled"}
	case StatusTrial:
		trial := s.CheckTrialStatus(derefTime(sub.TrialStart), sub.TrialTripsCount)
		if trial.IsExpired {
			return AccessDecision{Granted: false, Level: AccessNone, Reason: "trial_expired"}
		}
		return AccessDecision{Granted: true, Level: AccessTrial}
	}

	payment := s.CheckPaymentStatus(sub)
	if payment.Status == PaymentSuspended {
		return AccessDecision{Granted: false, Level: AccessNone, Reason: "payment_suspended"}
	}

	// Report-triggered suspensions deny access even when payments are current.
	if sub.Status == StatusSuspended {
		return AccessDecision{Granted: false, Level: AccessNone, Reason: "account_suspended"}
	}

	if payment.Status == PaymentLimited {
		// Accept-rides-only semantics are enforced by feature validators.
		return AccessDecision{Granted: true, Level: AccessLimited, Reason: "payment_overdue"}
	}

	return AccessDecision{Granted: true, Level: AccessFull}
}

// GetStanding loads a driver's subscription and evaluates access
func (s *Service) GetStanding(ctx context.Context, driverID uuid.UUID) (*DriverSubscription, AccessDecision, error) {
	sub, err := s.repo.GetByDriver(ctx, driverID)
	if err != nil {
		if err == ErrNotFound {
			return nil, AccessDecision{}, common.NewNotFoundError("no subscription for driver", err)
		}
		return nil, AccessDecision{}, common.NewUnavailableError("subscription lookup failed", err)
	}
	return sub, s.CheckDriverAccess(sub), nil
}

// ========================================
// STATE TRANSITIONS
// ========================================

// RecordPayment applies a received payment. It activates trial drivers,
// restores limited and suspended ones, and advances the billing cycle.
// A suspended driver must also cover the reconnection fee.
func (s *Service) RecordPayment(ctx context.Context, driverID uuid.UUID, amountMinor int64) (*DriverSubscription, error) {
	sub, err := s.repo.GetByDriver(ctx, driverID)
	if err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("no subscription for driver", err)
		}
		return nil, common.NewUnavailableError("subscription lookup failed", err)
	}

	if sub.Status == StatusCancelled {
		return nil, common.NewValidationError("cancelled subscriptions cannot accept payments", nil)
	}

	required := sub.PriceMinor
	if sub.ReconnectionFeeRequired || sub.Status == StatusSuspended {
		required += s.cfg.ReconnectionFee
	}
	if amountMinor < required {
		return nil, common.NewValidationError(
			fmt.Sprintf("payment of %d is below the %d required", amountMinor, required), nil)
	}

	now := s.now()
	nextDue := now.AddDate(0, 0, s.cfg.BillingCycleDays)
	wasTrial := sub.Status == StatusTrial
	wasSuspended := sub.Status == StatusSuspended

	sub.Status = StatusActive
	sub.LastPaymentDate = &now
	sub.NextPaymentDue = &nextDue
	sub.ReconnectionFeeRequired = false
	sub.SuspendedUntil = nil
	if sub.SubscriptionStart == nil {
		sub.SubscriptionStart = &now
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, common.NewUnavailableError("failed to record payment", err)
	}

	if wasSuspended {
		s.publishEvent(ctx, notify.SubjectDriverReinstated, sub.DriverID, map[string]interface{}{
			"reason": "payment_received",
		})
	}

	logger.WithContext(ctx).Info("payment recorded",
		zap.String("driver_id", driverID.String()),
		zap.Int64("amount_minor", amountMinor),
		zap.Bool("activated_from_trial", wasTrial),
	)

	return sub, nil
}

// MarkLimited degrades an overdue subscription to limited access
func (s *Service) MarkLimited(ctx context.Context, driverID uuid.UUID) error {
	return s.transition(ctx, driverID, func(sub *DriverSubscription) error {
		if sub.Status != StatusActive {
			return nil
		}
		sub.Status = StatusLimited
		return nil
	})
}

// MarkSuspended suspends a subscription. A nil until means the suspension
// has no scheduled end (payment or admin action lifts it).
func (s *Service) MarkSuspended(ctx context.Context, driverID uuid.UUID, until *time.Time, requireReconnectionFee bool) error {
	err := s.transition(ctx, driverID, func(sub *DriverSubscription) error {
		if sub.Status == StatusCancelled {
			return common.NewValidationError("cancelled subscriptions cannot be suspended", nil)
		}
		sub.Status = StatusSuspended
		sub.SuspendedUntil = until
		if requireReconnectionFee {
			sub.ReconnectionFeeRequired = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, notify.SubjectDriverSuspended, driverID, nil)
	return nil
}

// Cancel ends a subscription. Records are never deleted, only transitioned.
func (s *Service) Cancel(ctx context.Context, driverID uuid.UUID) error {
	return s.transition(ctx, driverID, func(sub *DriverSubscription) error {
		sub.Status = StatusCancelled
		sub.NextPaymentDue = nil
		return nil
	})
}

func (s *Service) transition(ctx context.Context, driverID uuid.UUID, mutate func(*DriverSubscription) error) error {
	sub, err := s.repo.GetByDriver(ctx, driverID)
	if err != nil {
		if err == ErrNotFound {
			return common.NewNotFoundError("no subscription for driver", err)
		}
		return common.NewUnavailableError("subscription lookup failed", err)
	}

	if err := mutate(sub); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return common.NewUnavailableError("failed to update subscription", err)
	}

	return nil
}

// ========================================
// TRIPS AND REFERRALS
// ========================================

// TripCompleted updates trip counters and evaluates referral rewards. The
// trial trip counter only advances while the trial is running.
func (s *Service) TripCompleted(ctx context.Context, driverID uuid.UUID) error {
	sub, err := s.repo.GetByDriver(ctx, driverID)
	if err != nil {
		if err == ErrNotFound {
			return common.NewNotFoundError("no subscription for driver", err)
		}
		return common.NewUnavailableError("subscription lookup failed", err)
	}

	sub.TotalTrips++
	if sub.Status == StatusTrial {
		sub.TrialTripsCount++
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return common.NewUnavailableError("failed to update trip counters", err)
	}

	// The reward fires exactly once, when the referee crosses the threshold.
	if sub.ReferredBy != nil && sub.TotalTrips == s.cfg.ReferralTripsNeeded {
		s.evaluateReferral(ctx, sub)
	}

	return nil
}

// evaluateReferral grants the referrer a free month when the referee has
// reached the trip threshold and both subscriptions are active. Reward
// failures are logged, never surfaced to the trip flow.
func (s *Service) evaluateReferral(ctx context.Context, referee *DriverSubscription) {
	log := logger.WithContext(ctx)

	referrer, err := s.repo.GetByDriver(ctx, *referee.ReferredBy)
	if err != nil {
		log.Warn("referral evaluation: referrer lookup failed", zap.Error(err))
		return
	}

	if referrer.Status != StatusActive || referee.Status != StatusActive {
		log.Info("referral not eligible: both subscriptions must be active",
			zap.String("referrer_id", referrer.DriverID.String()),
			zap.String("referee_id", referee.DriverID.String()),
		)
		return
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	granted, err := s.repo.CountReferralCreditsBetween(ctx, referrer.DriverID, monthStart, monthEnd)
	if err != nil {
		log.Warn("referral evaluation: credit count failed", zap.Error(err))
		return
	}
	if granted >= s.cfg.ReferralMonthlyCap {
		log.Info("referral monthly cap reached",
			zap.String("referrer_id", referrer.DriverID.String()),
			zap.Int("cap", s.cfg.ReferralMonthlyCap),
		)
		return
	}

	credit := &ReferralCredit{
		ID:         uuid.New(),
		ReferrerID: referrer.DriverID,
		RefereeID:  referee.DriverID,
		GrantedAt:  now,
	}
	if err := s.repo.InsertReferralCredit(ctx, credit); err != nil {
		log.Warn("referral evaluation: credit insert failed", zap.Error(err))
		return
	}

	// One free month extends the paid-through horizon by a billing cycle.
	extended := now.AddDate(0, 0, s.cfg.BillingCycleDays)
	if referrer.SubscriptionEnd != nil && referrer.SubscriptionEnd.After(now) {
		extended = referrer.SubscriptionEnd.AddDate(0, 0, s.cfg.BillingCycleDays)
	}
	referrer.SubscriptionEnd = &extended
	if referrer.NextPaymentDue != nil {
		nextDue := referrer.NextPaymentDue.AddDate(0, 0, s.cfg.BillingCycleDays)
		referrer.NextPaymentDue = &nextDue
	}
	referrer.FreeMonthsEarned++
	referrer.ReferralCountThisMonth = granted + 1

	if err := s.repo.Update(ctx, referrer); err != nil {
		log.Warn("referral evaluation: referrer update failed", zap.Error(err))
		return
	}

	s.sendNotification(ctx, referrer.DriverID, "Referral reward earned",
		"A driver you referred completed 20 trips. One free month has been added to your subscription.",
		notify.PriorityNormal)
}

// ========================================
// PAYMENT SWEEP (invoked by an external scheduler)
// ========================================

// RunPaymentSweep polls payable subscriptions and applies the reminder
// schedule for each one whose due date sits on a scheduled offset today.
func (s *Service) RunPaymentSweep(ctx context.Context) (*SweepResult, error) {
	subs, err := s.repo.ListWithPaymentDue(ctx)
	if err != nil {
		return nil, common.NewUnavailableError("failed to list due subscriptions", err)
	}

	now := s.now()
	result := &SweepResult{}

	for _, sub := range subs {
		result.Checked++
		offset := daysUntil(*sub.NextPaymentDue, now)

		action, ok := ReminderForOffset(offset)
		if !ok {
			continue
		}

		s.sendNotification(ctx, sub.DriverID, "Subscription payment", action.Message, notify.PriorityHigh)
		result.Reminded++

		switch action.Transition {
		case StatusLimited:
			if err := s.MarkLimited(ctx, sub.DriverID); err != nil {
				logger.WithContext(ctx).Error("sweep: mark limited failed",
					zap.String("driver_id", sub.DriverID.String()), zap.Error(err))
				continue
			}
			result.Limited++
		case StatusSuspended:
			if err := s.MarkSuspended(ctx, sub.DriverID, nil, true); err != nil {
				logger.WithContext(ctx).Error("sweep: mark suspended failed",
					zap.String("driver_id", sub.DriverID.String()), zap.Error(err))
				continue
			}
			result.Suspended++
		}
	}

	logger.WithContext(ctx).Info("payment sweep completed",
		zap.Int("checked", result.Checked),
		zap.Int("reminded", result.Reminded),
		zap.Int("limited", result.Limited),
		zap.Int("suspended", result.Suspended),
	)

	return result, nil
}

// ========================================
// HELPERS
// ========================================

func (s *Service) sendNotification(ctx context.Context, driverID uuid.UUID, title, body string, priority notify.Priority) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, driverID.String(), title, body, priority); err != nil {
		logger.WithContext(ctx).Warn("notification send failed",
			zap.String("driver_id", driverID.String()), zap.Error(err))
	}
}

func (s *Service) publishEvent(ctx context.Context, subject string, driverID uuid.UUID, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	event := notify.Event{
		Subject:    subject,
		DriverID:   driverID.String(),
		OccurredAt: s.now(),
		Payload:    payload,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("event publish failed",
			zap.String("subject", subject), zap.Error(err))
	}
}

func generateReferralCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "MV" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
