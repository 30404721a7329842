package trialabuse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/movaride/driver-lifecycle/pkg/common"
	"github.com/movaride/driver-lifecycle/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var eligibilityChecks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trial_eligibility_checks_total",
		Help: "Trial eligibility checks by outcome",
	},
	[]string{"outcome"},
)

// Config holds the eligibility thresholds
type Config struct {
	NINMinLength       int
	LicenseMinLength   int
	DeviceAccountLimit int
	IPAttemptLimit     int
	IPWindowDays       int
}

// Service runs the multi-factor trial eligibility gate
type Service struct {
	repo RepositoryInterface
	cfg  Config
	now  func() time.Time
}

// NewService creates a new trial abuse service
func NewService(repo RepositoryInterface, cfg Config) *Service {
	if cfg.NINMinLength == 0 {
		cfg.NINMinLength = 8
	}
	if cfg.LicenseMinLength == 0 {
		cfg.LicenseMinLength = 5
	}
	if cfg.DeviceAccountLimit == 0 {
		cfg.DeviceAccountLimit = 2
	}
	if cfg.IPAttemptLimit == 0 {
		cfg.IPAttemptLimit = 5
	}
	if cfg.IPWindowDays == 0 {
		cfg.IPWindowDays = 30
	}

	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// WithNow overrides the clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// NormalizePhone strips formatting characters so the same number always
// compares equal regardless of how it was entered
func NormalizePhone(phone string) string {
	replacer := strings.NewReplacer("+", "", " ", "", "-", "")
	return replacer.Replace(phone)
}

func hashIdentifier(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// CheckEligibility runs the ordered trial eligibility checks, short-circuiting
// on the first failure. Identifiers below their length threshold skip their
// check rather than denying. Only the phone check is mandatory.
func (s *Service) CheckEligibility(ctx context.Context, req *CheckEligibilityRequest) (*EligibilityResult, error) {
	phone := NormalizePhone(req.Phone)

	// Step 1: phone. Denials here are ordinary duplicates, not abuse.
	blacklisted, err := s.repo.IsPhoneBlacklisted(ctx, phone)
	if err != nil {
		return nil, common.NewUnavailableError("blacklist lookup failed", err)
	}
	if blacklisted {
		eligibilityChecks.WithLabelValues("denied").Inc()
		return s.denied(ReasonPhoneBlacklisted, "This phone number is not eligible for a trial"), nil
	}

	used, err := s.repo.PhoneUsedTrial(ctx, phone)
	if err != nil {
		return nil, common.NewUnavailableError("subscription lookup failed", err)
	}
	if used {
		eligibilityChecks.WithLabelValues("denied").Inc()
		return s.denied(ReasonTrialAlreadyUsed, "A trial has already been used with this phone number"), nil
	}

	// Step 2: national ID, hashed before lookup. Short values skip.
	if len(req.NIN) >= s.cfg.NINMinLength {
		exists, err := s.repo.NINHashExists(ctx, hashIdentifier(req.NIN))
		if err != nil {
			return nil, common.NewUnavailableError("identity lookup failed", err)
		}
		if exists {
			s.logAbuse(ctx, phone, CategoryNINReuse, "national ID already registered to a verified driver")
			eligibilityChecks.WithLabelValues("denied").Inc()
			return s.denied(ReasonDuplicateNIN, "This national ID is already registered"), nil
		}
	}

	// Step 3: license number, uppercase-normalized before hashing.
	if len(req.LicenseNumber) >= s.cfg.LicenseMinLength {
		exists, err := s.repo.LicenseHashExists(ctx, hashIdentifier(strings.ToUpper(req.LicenseNumber)))
		if err != nil {
			return nil, common.NewUnavailableError("identity lookup failed", err)
		}
		if exists {
			s.logAbuse(ctx, phone, CategoryLicenseReuse, "license number already registered to a verified driver")
			eligibilityChecks.WithLabelValues("denied").Inc()
			return s.denied(ReasonDuplicateLicense, "This license number is already registered"), nil
		}
	}

	// Step 4: device and IP fingerprints.
	if req.DeviceID != "" {
		count, err := s.repo.CountAccountsByDevice(ctx, req.DeviceID)
		if err != nil {
			return nil, common.NewUnavailableError("device lookup failed", err)
		}
		if count >= s.cfg.DeviceAccountLimit {
			s.logAbuse(ctx, phone, CategoryDeviceReuse, "device already linked to multiple accounts")
			eligibilityChecks.WithLabelValues("denied").Inc()
			return s.denied(ReasonDeviceReuse, "This device is linked to too many accounts"), nil
		}
	}

	if req.IPAddress != "" {
		since := s.now().AddDate(0, 0, -s.cfg.IPWindowDays)
		count, err := s.repo.CountTrialAttemptsByIP(ctx, req.IPAddress, since)
		if err != nil {
			return nil, common.NewUnavailableError("attempt lookup failed", err)
		}
		if count >= s.cfg.IPAttemptLimit {
			s.logAbuse(ctx, phone, CategoryIPFlood, "too many trial attempts from this IP address")
			eligibilityChecks.WithLabelValues("denied").Inc()
			return s.denied(ReasonIPAbuse, "Too many trial attempts from this network"), nil
		}
	}

	// The attempt record feeds future IP-window checks, so its write is
	// part of the operation, not best-effort.
	attempt := &TrialAttempt{
		ID:          uuid.New(),
		Phone:       phone,
		DeviceID:    req.DeviceID,
		IPAddress:   req.IPAddress,
		AttemptedAt: s.now(),
	}
	if err := s.repo.InsertTrialAttempt(ctx, attempt); err != nil {
		return nil, common.NewUnavailableError("failed to record trial attempt", err)
	}

	eligibilityChecks.WithLabelValues("allowed").Inc()
	return &EligibilityResult{Allowed: true}, nil
}

func (s *Service) denied(reason, message string) *EligibilityResult {
	return &EligibilityResult{
		Allowed: false,
		Reason:  reason,
		Message: message,
	}
}

func (s *Service) logAbuse(ctx context.Context, phone, category, reason string) {
	entry := &AbuseLog{
		ID:        uuid.New(),
		Phone:     phone,
		Category:  category,
		Reason:    reason,
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertAbuseLog(ctx, entry); err != nil {
		logger.WithContext(ctx).Warn("abuse log write failed",
			zap.String("category", category), zap.Error(err))
	}
}

// Blacklist adds a phone number to the trial blacklist
func (s *Service) Blacklist(ctx context.Context, req *AddToBlacklistRequest) (*BlacklistEntry, error) {
	entry := &BlacklistEntry{
		ID:        uuid.New(),
		Phone:     NormalizePhone(req.Phone),
		Reason:    req.Reason,
		Notes:     req.Notes,
		AddedBy:   req.AddedBy,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddToBlacklist(ctx, entry); err != nil {
		return nil, common.NewUnavailableError("failed to add blacklist entry", err)
	}

	logger.WithContext(ctx).Info("phone blacklisted",
		zap.String("reason", string(req.Reason)),
		zap.String("added_by", req.AddedBy),
	)

	return entry, nil
}

// GetAbuseStats summarizes attempt and abuse activity over a trailing window
func (s *Service) GetAbuseStats(ctx context.Context, windowDays int) (*AbuseStats, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.IPWindowDays
	}
	since := s.now().AddDate(0, 0, -windowDays)

	attempts, err := s.repo.CountTrialAttemptsSince(ctx, since)
	if err != nil {
		return nil, common.NewUnavailableError("attempt count failed", err)
	}

	byCategory, err := s.repo.CountAbuseLogsByCategory(ctx, since)
	if err != nil {
		return nil, common.NewUnavailableError("abuse log count failed", err)
	}

	blacklistSize, err := s.repo.CountBlacklist(ctx)
	if err != nil {
		return nil, common.NewUnavailableError("blacklist count failed", err)
	}

	total := 0
	for _, c := range byCategory {
		total += c
	}

	return &AbuseStats{
		WindowDays:     windowDays,
		TotalAttempts:  attempts,
		TotalAbuseLogs: total,
		ByCategory:     byCategory,
		BlacklistSize:  blacklistSize,
	}, nil
}
