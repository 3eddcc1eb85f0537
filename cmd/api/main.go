package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/capability"
	"github.com/noah-isme/gema-activity-api/internal/config"
	"github.com/noah-isme/gema-activity-api/internal/database"
	"github.com/noah-isme/gema-activity-api/internal/handler"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/middleware"
	"github.com/noah-isme/gema-activity-api/internal/observability"
	"github.com/noah-isme/gema-activity-api/internal/repository"
	"github.com/noah-isme/gema-activity-api/internal/router"
	"github.com/noah-isme/gema-activity-api/internal/service"
	"github.com/noah-isme/gema-activity-api/internal/visibility"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv != "production" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.AppName, cfg.OTelEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	probes := map[string]handler.HealthProbe{"database": databaseProbe(db)}

	var limiterStorage fiber.Storage
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		limiterStorage = database.NewRedisStorage(redisClient, "ratelimit")
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("redis url not set, rate limit counters stay in memory")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	aggregation := service.AggregationConfig{
		ForumLimit:    cfg.Aggregation.ForumLimit,
		DeadlineLimit: cfg.Aggregation.DeadlineLimit,
		MessageLimit:  cfg.Aggregation.MessageLimit,
		Lookback:      cfg.Aggregation.Lookback,
		Timezone:      cfg.Timezone,
	}

	userRepo := repository.NewUserRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	moduleRepo := repository.NewCourseModuleRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	forumRepo := repository.NewForumRepository(db)
	gradingRepo := repository.NewGradingRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	gradebookRepo := repository.NewGradebookRepository(db)

	resolver := identity.NewResolver(userRepo)
	caps := capability.NewChecker(accessRepo)
	gate := visibility.NewGate(caps, enrollmentRepo, groupRepo)
	moduleGate := visibility.NewModuleGate(gate)

	forumDeps := service.ForumAdapterDeps{
		Forums:      forumRepo,
		Enrollments: enrollmentRepo,
		Modules:     moduleRepo,
		Gate:        gate,
		Caps:        caps,
	}
	forumService := service.NewForumActivityService(resolver, []service.ForumAdapter{
		service.NewStandardForumAdapter(forumDeps),
		service.NewAdvancedForumAdapter(forumDeps, service.DefaultAnonymizer),
	}, aggregation, logger)

	registry := service.DefaultGradingRegistry(gradingRepo)
	registry.ReportUnregistered(context.Background(), moduleRepo, logger)

	deadlineService := service.NewDeadlineService(resolver, enrollmentRepo, calendarRepo, moduleRepo, moduleGate, aggregation, logger)
	gradingService := service.NewGradingService(resolver, gate, registry, moduleRepo, enrollmentRepo, aggregation, logger)
	messageService := service.NewMessageService(resolver, messageRepo, aggregation, logger)
	courseInfoService := service.NewCourseInfoService(resolver, gate, moduleGate, caps, enrollmentRepo, moduleRepo, gradebookRepo, logger)
	overviewService := service.NewOverviewService(resolver, forumService, deadlineService, gradingService, messageService, logger)

	activityHandler := handler.NewActivityHandler(handler.ActivityServices{
		Overview:   overviewService,
		Forums:     forumService,
		Deadlines:  deadlineService,
		Grading:    gradingService,
		Messages:   messageService,
		CourseInfo: courseInfoService,
	}, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler: activityHandler,
		HealthProbes:    probes,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
		RateLimiter: middleware.RateLimit(middleware.RateLimitConfig{
			Identifier: "me",
			Max:        cfg.RateLimit.Max,
			Window:     cfg.RateLimit.Window,
			Storage:    limiterStorage,
		}),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to flush traces")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func databaseProbe(db *gorm.DB) handler.HealthProbe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
