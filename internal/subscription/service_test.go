package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is an in-package mock for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSubscription(ctx context.Context, sub *DriverSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockRepository) GetByDriver(ctx context.Context, driverID uuid.UUID) (*DriverSubscription, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DriverSubscription), args.Error(1)
}

func (m *MockRepository) GetByReferralCode(ctx context.Context, code string) (*DriverSubscription, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DriverSubscription), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, sub *DriverSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockRepository) CountByPhase(ctx context.Context, phase Phase) (int, error) {
	args := m.Called(ctx, phase)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListWithPaymentDue(ctx context.Context) ([]*DriverSubscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*DriverSubscription), args.Error(1)
}

func (m *MockRepository) InsertReferralCredit(ctx context.Context, credit *ReferralCredit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockRepository) CountReferralCreditsBetween(ctx context.Context, referrerID uuid.UUID, from, to time.Time) (int, error) {
	args := m.Called(ctx, referrerID, from, to)
	return args.Int(0), args.Error(1)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo RepositoryInterface) *Service {
	return NewService(repo, nil, nil, Config{}).WithNow(func() time.Time { return fixedNow })
}

func activeSub(due time.Time) *DriverSubscription {
	start := fixedNow.AddDate(0, -2, 0)
	last := due.AddDate(0, 0, -30)
	return &DriverSubscription{
		ID:                uuid.New(),
		DriverID:          uuid.New(),
		Status:            StatusActive,
		Phase:             PhaseLaunch,
		PriceMinor:        15000,
		SubscriptionStart: &start,
		LastPaymentDate:   &last,
		NextPaymentDue:    &due,
	}
}

// ---------------------------------------------------------------------------
// CheckTrialStatus
// ---------------------------------------------------------------------------

func TestCheckTrialStatus(t *testing.T) {
	svc := newTestService(new(MockRepository))

	tests := []struct {
		name         string
		startedAgo   time.Duration
		trips        int
		expectExp    bool
		expectReason string
	}{
		{"fresh trial", 1 * time.Hour, 0, false, ""},
		{"time expired regardless of trips", 25 * time.Hour, 0, true, TrialExpiryTime},
		{"trips expired regardless of time", 1 * time.Hour, 3, true, TrialExpiryTrips},
		{"trips over the limit", 2 * time.Hour, 5, true, TrialExpiryTrips},
		{"both expired reports time reason", 30 * time.Hour, 4, true, TrialExpiryTime},
		{"exactly 24 hours is expired", 24 * time.Hour, 0, true, TrialExpiryTime},
		{"just under 24 hours with 2 trips", 23*time.Hour + 59*time.Minute, 2, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := svc.CheckTrialStatus(fixedNow.Add(-tt.startedAgo), tt.trips)
			assert.Equal(t, tt.expectExp, status.IsExpired)
			assert.Equal(t, tt.expectReason, status.ExpiryReason)
		})
	}
}

func TestCheckTrialStatus_Remaining(t *testing.T) {
	svc := newTestService(new(MockRepository))

	status := svc.CheckTrialStatus(fixedNow.Add(-6*time.Hour), 1)

	assert.False(t, status.IsExpired)
	assert.InDelta(t, 6.0, status.HoursElapsed, 0.01)
	assert.Equal(t, 18*time.Hour, status.TimeRemaining)
	assert.Equal(t, 2, status.TripsRemaining)
}

func TestCheckTrialStatus_RemainingClampedToZero(t *testing.T) {
	svc := newTestService(new(MockRepository))

	status := svc.CheckTrialStatus(fixedNow.Add(-48*time.Hour), 7)

	assert.True(t, status.IsExpired)
	assert.Equal(t, time.Duration(0), status.TimeRemaining)
	assert.Equal(t, 0, status.TripsRemaining)
}

// ---------------------------------------------------------------------------
// CheckPaymentStatus
// ---------------------------------------------------------------------------

func TestCheckPaymentStatus_NoDueDate(t *testing.T) {
	svc := newTestService(new(MockRepository))
	sub := &DriverSubscription{Status: StatusActive, PriceMinor: 15000}

	status := svc.CheckPaymentStatus(sub)

	assert.Equal(t, PaymentNoDue, status.Status)
	assert.Zero(t, status.AmountDue)
}

func TestCheckPaymentStatus_Transitions(t *testing.T) {
	svc := newTestService(new(MockRepository))

	tests := []struct {
		name         string
		due          time.Time
		expectStatus string
		expectAmount int64
	}{
		{"due tomorrow is active", fixedNow.AddDate(0, 0, 1), PaymentActive, 15000},
		{"due in 10 days is active", fixedNow.AddDate(0, 0, 10), PaymentActive, 15000},
		{"2 days overdue is limited", fixedNow.AddDate(0, 0, -2), PaymentLimited, 15000},
		{"5 days overdue is warning", fixedNow.AddDate(0, 0, -5), PaymentWarning, 15000},
		{"7 days overdue is still warning", fixedNow.AddDate(0, 0, -7), PaymentWarning, 15000},
		{"8 days overdue is suspended with fee", fixedNow.AddDate(0, 0, -8), PaymentSuspended, 17000},
		{"10 days overdue is suspended with fee", fixedNow.AddDate(0, 0, -10), PaymentSuspended, 17000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := svc.CheckPaymentStatus(activeSub(tt.due))
			assert.Equal(t, tt.expectStatus, status.Status)
			assert.Equal(t, tt.expectAmount, status.AmountDue)
		})
	}
}

func TestCheckPaymentStatus_DueWithin24HoursEntersGrace(t *testing.T) {
	// The day difference truncates toward zero, so a due date less than 24h
	// away counts as 0 days and lands in the limited-access grace window.
	svc := newTestService(new(MockRepository))

	status := svc.CheckPaymentStatus(activeSub(fixedNow.Add(23 * time.Hour)))

	assert.Equal(t, PaymentLimited, status.Status)
	assert.Equal(t, 0, status.DaysOverdue)
}

// ---------------------------------------------------------------------------
// CheckDriverAccess
// ---------------------------------------------------------------------------

func TestCheckDriverAccess_TrialGranted(t *testing.T) {
	svc := newTestService(new(MockRepository))
	start := fixedNow.Add(-2 * time.Hour)
	sub := &DriverSubscription{Status: StatusTrial, TrialStart: &start, TrialTripsCount: 1}

	decision := svc.CheckDriverAccess(sub)

	assert.True(t, decision.Granted)
	assert.Equal(t, AccessTrial, decision.Level)
}

func TestCheckDriverAccess_TrialExpired(t *testing.T) {
	svc := newTestService(new(MockRepository))
	start := fixedNow.Add(-30 * time.Hour)
	sub := &DriverSubscription{Status: StatusTrial, TrialStart: &start}

	decision := svc.CheckDriverAccess(sub)

	assert.False(t, decision.Granted)
	assert.Equal(t, "trial_expired", decision.Reason)
}

func TestCheckDriverAccess_PaymentStates(t *testing.T) {
	svc := newTestService(new(MockRepository))

	tests := []struct {
		name        string
		due         time.Time
		expectGrant bool
		expectLevel AccessLevel
	}{
		{"current payment grants full", fixedNow.AddDate(0, 0, 15), true, AccessFull},
		{"grace window grants limited", fixedNow.AddDate(0, 0, -2), true, AccessLimited},
		{"warning window grants full", fixedNow.AddDate(0, 0, -5), true, AccessFull},
		{"past suspension denies", fixedNow.AddDate(0, 0, -9), false, AccessNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := svc.CheckDriverAccess(activeSub(tt.due))
			assert.Equal(t, tt.expectGrant, decision.Granted)
			assert.Equal(t, tt.expectLevel, decision.Level)
		})
	}
}

func TestCheckDriverAccess_ReportSuspensionDeniesDespiteCurrentPayment(t *testing.T) {
	svc := newTestService(new(MockRepository))
	sub := activeSub(fixedNow.AddDate(0, 0, 20))
	sub.Status = StatusSuspended

	decision := svc.CheckDriverAccess(sub)

	assert.False(t, decision.Granted)
	assert.Equal(t, "account_suspended", decision.Reason)
}

func TestCheckDriverAccess_Cancelled(t *testing.T) {
	svc := newTestService(new(MockRepository))
	sub := &DriverSubscription{Status: StatusCancelled}

	decision := svc.CheckDriverAccess(sub)

	assert.False(t, decision.Granted)
	assert.Equal(t, "subscription_cancelled", decision.Reason)
}

// ---------------------------------------------------------------------------
// RegisterTrial
// ---------------------------------------------------------------------------

func TestRegisterTrial_CreatesTrialSubscription(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(nil, ErrNotFound)
	repo.On("CountByPhase", mock.Anything, PhaseLaunch).Return(10, nil)
	repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub *DriverSubscription) bool {
		return sub.Status == StatusTrial &&
			sub.Phase == PhaseLaunch &&
			sub.PriceMinor == 15000 &&
			sub.TrialStart != nil &&
			sub.SubscriptionStart == nil &&
			sub.ReferralCode != ""
	})).Return(nil)

	sub, err := svc.RegisterTrial(context.Background(), &RegisterTrialRequest{DriverID: driverID})

	require.NoError(t, err)
	assert.Equal(t, StatusTrial, sub.Status)
	repo.AssertExpectations(t)
}

func TestRegisterTrial_DuplicateDenied(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(&DriverSubscription{DriverID: driverID}, nil)

	_, err := svc.RegisterTrial(context.Background(), &RegisterTrialRequest{DriverID: driverID})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has a subscription")
}

func TestRegisterTrial_LaunchCapMovesToEarlyPhase(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(nil, ErrNotFound)
	repo.On("CountByPhase", mock.Anything, PhaseLaunch).Return(500, nil)
	repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub *DriverSubscription) bool {
		return sub.Phase == PhaseEarly && sub.PriceMinor == 18000
	})).Return(nil)

	sub, err := svc.RegisterTrial(context.Background(), &RegisterTrialRequest{DriverID: driverID})

	require.NoError(t, err)
	assert.Equal(t, PhaseEarly, sub.Phase)
}

func TestRegisterTrial_ReferralCodeResolvesToReferrer(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()
	referrerID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(nil, ErrNotFound)
	repo.On("GetByReferralCode", mock.Anything, "MVA1B2C3D4").
		Return(&DriverSubscription{DriverID: referrerID, ReferralCode: "MVA1B2C3D4"}, nil)
	repo.On("CountByPhase", mock.Anything, PhaseLaunch).Return(10, nil)
	repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub *DriverSubscription) bool {
		return sub.ReferredBy != nil && *sub.ReferredBy == referrerID
	})).Return(nil)

	// lowercase with whitespace still resolves
	sub, err := svc.RegisterTrial(context.Background(), &RegisterTrialRequest{
		DriverID:     driverID,
		ReferralCode: " mva1b2c3d4 ",
	})

	require.NoError(t, err)
	require.NotNil(t, sub.ReferredBy)
	assert.Equal(t, referrerID, *sub.ReferredBy)
	repo.AssertExpectations(t)
}

func TestRegisterTrial_UnknownReferralCodeRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(nil, ErrNotFound)
	repo.On("GetByReferralCode", mock.Anything, "MVFFFFFFFF").Return(nil, ErrNotFound)

	_, err := svc.RegisterTrial(context.Background(), &RegisterTrialRequest{
		DriverID:     driverID,
		ReferralCode: "MVFFFFFFFF",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown referral code")
	repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestRegisterTrial_OwnReferralCodeRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(nil, ErrNotFound)
	repo.On("GetByReferralCode", mock.Anything, "MV00112233").
		Return(&DriverSubscription{DriverID: driverID, ReferralCode: "MV00112233"}, nil)

	_, err := svc.RegisterTrial(context.Background(), &RegisterTrialRequest{
		DriverID:     driverID,
		ReferralCode: "MV00112233",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "own referral code")
	repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// RecordPayment
// ---------------------------------------------------------------------------

func TestRecordPayment_ActivatesTrial(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()
	start := fixedNow.Add(-10 * time.Hour)
	sub := &DriverSubscription{
		ID: uuid.New(), DriverID: driverID, Status: StatusTrial,
		Phase: PhaseLaunch, PriceMinor: 15000, TrialStart: &start,
	}

	repo.On("GetByDriver", mock.Anything, driverID).Return(sub, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *DriverSubscription) bool {
		return updated.Status == StatusActive &&
			updated.SubscriptionStart != nil &&
			updated.NextPaymentDue != nil &&
			updated.NextPaymentDue.Equal(fixedNow.AddDate(0, 0, 30))
	})).Return(nil)

	result, err := svc.RecordPayment(context.Background(), driverID, 15000)

	require.NoError(t, err)
	assert.Equal(t, StatusActive, result.Status)
	repo.AssertExpectations(t)
}

func TestRecordPayment_SuspendedRequiresReconnectionFee(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()
	sub := activeSub(fixedNow.AddDate(0, 0, -10))
	sub.DriverID = driverID
	sub.Status = StatusSuspended
	sub.ReconnectionFeeRequired = true

	repo.On("GetByDriver", mock.Anything, driverID).Return(sub, nil)

	// Base price alone is not enough.
	_, err := svc.RecordPayment(context.Background(), driverID, 15000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below the 17000 required")

	// Price plus fee restores the account.
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *DriverSubscription) bool {
		return updated.Status == StatusActive &&
			!updated.ReconnectionFeeRequired &&
			updated.SuspendedUntil == nil
	})).Return(nil)

	result, err := svc.RecordPayment(context.Background(), driverID, 17000)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, result.Status)
}

func TestRecordPayment_CancelledRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()

	repo.On("GetByDriver", mock.Anything, driverID).Return(&DriverSubscription{
		DriverID: driverID, Status: StatusCancelled, PriceMinor: 15000,
	}, nil)

	_, err := svc.RecordPayment(context.Background(), driverID, 15000)

	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Trial is never re-entered
// ---------------------------------------------------------------------------

func TestTrialNeverReentered(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()
	sub := activeSub(fixedNow.AddDate(0, 0, 10))
	sub.DriverID = driverID

	repo.On("GetByDriver", mock.Anything, driverID).Return(sub, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *DriverSubscription) bool {
		return updated.Status != StatusTrial
	})).Return(nil)

	_, err := svc.RecordPayment(context.Background(), driverID, 15000)
	require.NoError(t, err)
	assert.NotEqual(t, StatusTrial, sub.Status)
}

// ---------------------------------------------------------------------------
// TripCompleted and referrals
// ---------------------------------------------------------------------------

func TestTripCompleted_IncrementsTrialCounter(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	driverID := uuid.New()
	start := fixedNow.Add(-2 * time.Hour)
	sub := &DriverSubscription{
		ID: uuid.New(), DriverID: driverID, Status: StatusTrial,
		TrialStart: &start, TrialTripsCount: 1, TotalTrips: 1,
	}

	repo.On("GetByDriver", mock.Anything, driverID).Return(sub, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *DriverSubscription) bool {
		return updated.TrialTripsCount == 2 && updated.TotalTrips == 2
	})).Return(nil)

	err := svc.TripCompleted(context.Background(), driverID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTripCompleted_ReferralGrantedAtThreshold(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	referrerID := uuid.New()
	refereeID := uuid.New()
	due := fixedNow.AddDate(0, 0, 12)

	referee := activeSub(due)
	referee.DriverID = refereeID
	referee.ReferredBy = &referrerID
	referee.TotalTrips = 19

	referrer := activeSub(due)
	referrer.DriverID = referrerID

	repo.On("GetByDriver", mock.Anything, refereeID).Return(referee, nil)
	repo.On("GetByDriver", mock.Anything, referrerID).Return(referrer, nil)
	repo.On("Update", mock.Anything, referee).Return(nil)
	repo.On("CountReferralCreditsBetween", mock.Anything, referrerID, mock.Anything, mock.Anything).Return(2, nil)
	repo.On("InsertReferralCredit", mock.Anything, mock.MatchedBy(func(c *ReferralCredit) bool {
		return c.ReferrerID == referrerID && c.RefereeID == refereeID
	})).Return(nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(updated *DriverSubscription) bool {
		return updated.DriverID == referrerID &&
			updated.FreeMonthsEarned == 1 &&
			updated.NextPaymentDue.Equal(due.AddDate(0, 0, 30))
	})).Return(nil)

	err := svc.TripCompleted(context.Background(), refereeID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTripCompleted_ReferralMonthlyCapBlocksGrant(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	referrerID := uuid.New()
	refereeID := uuid.New()

	referee := activeSub(fixedNow.AddDate(0, 0, 12))
	referee.DriverID = refereeID
	referee.ReferredBy = &referrerID
	referee.TotalTrips = 19

	referrer := activeSub(fixedNow.AddDate(0, 0, 12))
	referrer.DriverID = referrerID

	repo.On("GetByDriver", mock.Anything, refereeID).Return(referee, nil)
	repo.On("GetByDriver", mock.Anything, referrerID).Return(referrer, nil)
	repo.On("Update", mock.Anything, referee).Return(nil)
	repo.On("CountReferralCreditsBetween", mock.Anything, referrerID, mock.Anything, mock.Anything).Return(5, nil)

	err := svc.TripCompleted(context.Background(), refereeID)

	require.NoError(t, err)
	repo.AssertNotCalled(t, "InsertReferralCredit", mock.Anything, mock.Anything)
}

func TestTripCompleted_NoReferralPastThreshold(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	referrerID := uuid.New()
	refereeID := uuid.New()

	referee := activeSub(fixedNow.AddDate(0, 0, 12))
	referee.DriverID = refereeID
	referee.ReferredBy = &referrerID
	referee.TotalTrips = 25 // already past the threshold, reward fired earlier

	repo.On("GetByDriver", mock.Anything, refereeID).Return(referee, nil)
	repo.On("Update", mock.Anything, referee).Return(nil)

	err := svc.TripCompleted(context.Background(), refereeID)

	require.NoError(t, err)
	repo.AssertNotCalled(t, "InsertReferralCredit", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Payment sweep
// ---------------------------------------------------------------------------

func TestRunPaymentSweep_AppliesScheduledTransitions(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	dueToday := activeSub(fixedNow.Add(2 * time.Hour)) // offset 0
	overdueSeven := activeSub(fixedNow.AddDate(0, 0, -7))
	overdueSeven.Status = StatusLimited
	notScheduled := activeSub(fixedNow.AddDate(0, 0, 12))

	repo.On("ListWithPaymentDue", mock.Anything).Return(
		[]*DriverSubscription{dueToday, overdueSeven, notScheduled}, nil)
	repo.On("GetByDriver", mock.Anything, dueToday.DriverID).Return(dueToday, nil)
	repo.On("GetByDriver", mock.Anything, overdueSeven.DriverID).Return(overdueSeven, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.RunPaymentSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 2, result.Reminded)
	assert.Equal(t, 1, result.Limited)
	assert.Equal(t, 1, result.Suspended)
	assert.Equal(t, StatusLimited, dueToday.Status)
	assert.Equal(t, StatusSuspended, overdueSeven.Status)
	assert.True(t, overdueSeven.ReconnectionFeeRequired)
}

// ---------------------------------------------------------------------------
// Pricing and reminder tables
// ---------------------------------------------------------------------------

func TestPriceForPhase(t *testing.T) {
	assert.Equal(t, int64(15000), PriceForPhase(PhaseLaunch))
	assert.Equal(t, int64(18000), PriceForPhase(PhaseEarly))
	assert.Equal(t, int64(20000), PriceForPhase(PhaseGrowth))
	assert.Equal(t, int64(25000), PriceForPhase(PhasePremium))
	assert.Equal(t, int64(25000), PriceForPhase(Phase("unknown")))
}

func TestReminderForOffset(t *testing.T) {
	for _, offset := range ReminderOffsets() {
		action, ok := ReminderForOffset(offset)
		assert.True(t, ok, "offset %d should be scheduled", offset)
		assert.NotEmpty(t, action.Message)
	}

	zero, _ := ReminderForOffset(0)
	assert.Equal(t, StatusLimited, zero.Transition)

	seven, _ := ReminderForOffset(-7)
	assert.Equal(t, StatusSuspended, seven.Transition)

	_, ok := ReminderForOffset(2)
	assert.False(t, ok)
}

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, 10)
		assert.Equal(t, "MV", code[:2])
		seen[code] = true
	}
	assert.Equal(t, 50, len(seen), "codes should be unique")
}
