package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movaride/driver-lifecycle/internal/maps"
	"github.com/movaride/driver-lifecycle/internal/notify"
	"github.com/movaride/driver-lifecycle/internal/reports"
	"github.com/movaride/driver-lifecycle/internal/subscription"
	"github.com/movaride/driver-lifecycle/internal/trialabuse"
	"github.com/movaride/driver-lifecycle/pkg/common"
	"github.com/movaride/driver-lifecycle/pkg/config"
	"github.com/movaride/driver-lifecycle/pkg/database"
	"github.com/movaride/driver-lifecycle/pkg/logger"
	"github.com/movaride/driver-lifecycle/pkg/middleware"
	"github.com/movaride/driver-lifecycle/pkg/redis"
)

const serviceName = "driver-lifecycle"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)
	log.Println("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Event publication is optional; without NATS events are logged and dropped.
	var events notify.Publisher = notify.NewNoopPublisher()
	if cfg.NATS.Enabled {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()
		events = notify.NewNATSPublisher(nc)
		log.Println("Connected to NATS")
	}

	notifier := notify.NewLogSender()

	// Subscriptions
	subRepo := subscription.NewRepository(db)
	subService := subscription.NewService(subRepo, notifier, events, subscription.Config{
		CurrentPhase:        subscription.Phase(cfg.Pricing.CurrentPhase),
		LaunchDriverCap:     cfg.Pricing.LaunchDriverCap,
		ReconnectionFee:     cfg.Pricing.ReconnectionFee,
		BillingCycleDays:    cfg.Pricing.BillingCycleDays,
		TrialMaxHours:       cfg.Trial.MaxHours,
		TrialMaxTrips:       cfg.Trial.MaxTrips,
		ReferralTripsNeeded: cfg.Pricing.ReferralTripsNeeded,
		ReferralMonthlyCap:  cfg.Pricing.ReferralMonthlyCap,
	})
	subHandler := subscription.NewHandler(subService)

	// Safety reports
	reportRepo := reports.NewRepository(db)
	reportService := reports.NewService(reportRepo, subService, notifier, events, reports.Config{})
	reportHandler := reports.NewHandler(reportService)

	// Trial eligibility
	trialRepo := trialabuse.NewRepository(db)
	trialService := trialabuse.NewService(trialRepo, trialabuse.Config{})
	trialHandler := trialabuse.NewHandler(trialService)

	// Map cost control
	tracker := maps.NewRateTracker(redisClient.Client, maps.TrackerConfig{
		HourlyLimit:     cfg.Maps.HourlyRequestLimit,
		DailyLimit:      cfg.Maps.DailyRequestLimit,
		TrialDailyLimit: cfg.Maps.TrialDailyLimit,
		Prefix:          cfg.Maps.RedisPrefix,
	})
	distanceCache := maps.NewDistanceCache(redisClient.Client, cfg.Maps.RedisPrefix,
		time.Duration(cfg.Maps.CacheTTLSeconds)*time.Second)
	mapsService := maps.NewService(tracker, distanceCache, nil, maps.Config{
		BaseFare:           cfg.Maps.BaseFare,
		PerKmRate:          cfg.Maps.PerKmRate,
		NavigationInterval: time.Duration(cfg.Maps.NavigationIntervalSec) * time.Second,
	})
	mapsHandler := maps.NewHandler(mapsService, &standingAdapter{subs: subService})

	registerValidators()

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, "1.0.0", map[string]func() error{
		"postgres": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Ping(ctx)
		},
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		},
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		subs := api.Group("/subscriptions")
		{
			subs.POST("/trial", subHandler.RegisterTrial)
			subs.GET("/:driver_id/standing", subHandler.GetStanding)
			subs.POST("/:driver_id/payments", subHandler.RecordPayment)
			subs.POST("/:driver_id/trips", subHandler.TripCompleted)
		}

		api.POST("/trial/eligibility", trialHandler.CheckEligibility)

		drivers := api.Group("/drivers")
		{
			drivers.POST("/:driver_id/reports", reportHandler.SubmitReport)
			drivers.GET("/:driver_id/reports", reportHandler.ListDriverReports)
			drivers.GET("/:driver_id/score", reportHandler.GetDriverScore)

			drivers.POST("/:driver_id/maps/distance", mapsHandler.CalculateDistance)
			drivers.POST("/:driver_id/maps/navigation", mapsHandler.NavigationUpdate)
			drivers.GET("/:driver_id/maps/usage", mapsHandler.GetUsage)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/reports/pending", reportHandler.ListPendingReports)
			admin.PUT("/reports/:report_id/review", reportHandler.ReviewReport)
			admin.POST("/trial/blacklist", trialHandler.Blacklist)
			admin.GET("/trial/abuse-stats", trialHandler.AbuseStats)
		}

		// Scheduler-invoked endpoints
		internal := api.Group("/internal")
		{
			internal.POST("/subscriptions/sweep", subHandler.RunPaymentSweep)
		}
	}

	addr := ":" + cfg.Server.Port
	log.Printf("Driver lifecycle service starting on port %s", cfg.Server.Port)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// registerValidators adds custom binding rules to gin's validator engine
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// msisdn: a phone number that normalizes to 10-15 digits
	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		digits := trialabuse.NormalizePhone(fl.Field().String())
		if len(digits) < 10 || len(digits) > 15 {
			return false
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
}

// standingAdapter exposes subscription standing to the maps package
type standingAdapter struct {
	subs *subscription.Service
}

func (a *standingAdapter) DriverStanding(ctx context.Context, driverID string) (*maps.Standing, error) {
	id, err := uuid.Parse(driverID)
	if err != nil {
		return nil, common.NewValidationError("invalid driver id", err)
	}

	sub, _, err := a.subs.GetStanding(ctx, id)
	if err != nil {
		return nil, err
	}

	standing := &maps.Standing{
		SubscriptionStatus: string(sub.Status),
		SuspendedUntil:     sub.SuspendedUntil,
	}
	if sub.Status == subscription.StatusTrial && sub.TrialStart != nil {
		standing.TrialExpired = a.subs.CheckTrialStatus(*sub.TrialStart, sub.TrialTripsCount).IsExpired
	}

	return standing, nil
}
