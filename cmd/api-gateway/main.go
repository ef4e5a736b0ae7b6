package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-balancer/api/swagger"
	"github.com/noah-isme/timetable-balancer/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-balancer/internal/middleware"
	"github.com/noah-isme/timetable-balancer/internal/models"
	"github.com/noah-isme/timetable-balancer/internal/repository"
	"github.com/noah-isme/timetable-balancer/internal/service"
	"github.com/noah-isme/timetable-balancer/internal/timetable"
	"github.com/noah-isme/timetable-balancer/pkg/cache"
	"github.com/noah-isme/timetable-balancer/pkg/config"
	"github.com/noah-isme/timetable-balancer/pkg/database"
	"github.com/noah-isme/timetable-balancer/pkg/export"
	"github.com/noah-isme/timetable-balancer/pkg/jobs"
	"github.com/noah-isme/timetable-balancer/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-balancer/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-balancer/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-balancer/pkg/storage"
)

// exportBacklog bounds queued export jobs; readiness fails once it is full.
const exportBacklog = 64

// @title Timetable Balancer API
// @version 1.0.0
// @description Builds week-balanced class timetables for academic periods.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	cacheEnabled := redisClient != nil && cfg.Balancer.CacheEnabled

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	classTimeRepo := repository.NewClassTimeRepository(db)
	loadBalanceRepo := repository.NewLoadBalanceRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, cacheEnabled)

	// Services
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "timetable-balancer",
		Leeway:            30 * time.Second,
	})
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)

	balancerCfg, err := balancerConfig(cfg.Balancer)
	if err != nil {
		logr.Fatal("invalid balancer configuration", zap.Error(err))
	}
	balanceSvc := service.NewBalanceService(
		periodRepo, subjectRepo, activityRepo, scheduleRepo, classTimeRepo, loadBalanceRepo,
		db, cacheSvc, metricsSvc, validate, logr,
		service.BalanceServiceConfig{
			Balancer:    balancerCfg,
			Seed:        cfg.Balancer.Seed,
			ProposalTTL: cfg.Balancer.ProposalTTL,
			KeyPrefix:   cfg.Redis.KeyPrefix,
		},
	)
	scheduleSvc := service.NewScheduleService(scheduleRepo, classTimeRepo, loadBalanceRepo, cacheSvc, validate, logr, cfg.Redis.KeyPrefix)

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(scheduleRepo, classTimeRepo, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	exportWorker := service.NewExportWorker(exportJobRepo, exportSvc, metricsSvc, cfg.Exports.WorkerRetries, logr)
	var scheduleExportSvc *service.ScheduleExportService
	exportQueue := jobs.NewQueue("schedule-exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:       cfg.Exports.WorkerConcurrency,
		BufferSize:    exportBacklog,
		MaxRetries:    cfg.Exports.WorkerRetries,
		RetryDelay:    2 * time.Second,
		MaxRetryDelay: 30 * time.Second,
		Logger:        logr,
		OnExhausted: func(job jobs.Job, cause error) {
			scheduleExportSvc.MarkExhausted(job, cause)
		},
	})
	scheduleExportSvc = service.NewScheduleExportService(exportJobRepo, scheduleRepo, exportQueue, exportSvc, metricsSvc, validate, logr, service.ScheduleExportServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})

	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	if recovered := scheduleExportSvc.RecoverPendingJobs(ctx); recovered > 0 {
		logr.Info("requeued pending exports", zap.Int("jobs", recovered))
	}
	scheduleExportSvc.StartCleanup(ctx)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	balanceHandler := handler.NewBalanceHandler(balanceSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	exportHandler := handler.NewExportHandler(scheduleExportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient, exportQueue))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// Signed tokens authorise downloads on their own.
	api.GET("/exports/download/:token", exportHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)

	planners := internalmiddleware.RequireRoles(models.RoleAdmin, models.RolePlanner)

	periods := secured.Group("/periods")
	periods.POST("", planners, periodHandler.Create)
	periods.GET("/:id", periodHandler.Get)
	periods.GET("/:id/calendar", periodHandler.Calendar)
	periods.GET("/:id/days-not-available", periodHandler.ListDaysNotAvailable)
	periods.POST("/:id/days-not-available", planners, periodHandler.AddDayNotAvailable)
	periods.GET("/:id/weeks-not-available", periodHandler.ListWeeksNotAvailable)
	periods.POST("/:id/weeks-not-available", planners, periodHandler.AddWeekNotAvailable)

	balances := secured.Group("/balances", planners)
	balances.POST("", balanceHandler.Calculate)
	balances.POST("/preview", balanceHandler.Preview)
	balances.POST("/save", balanceHandler.Save)

	schedules := secured.Group("/schedules")
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.GET("/:id/class-times", scheduleHandler.ClassTimes)
	schedules.GET("/:id/balance", scheduleHandler.Balance)
	schedules.DELETE("/:id", planners, scheduleHandler.Delete)
	schedules.POST("/:id/exports", planners, exportHandler.Create)

	secured.GET("/exports/:id", exportHandler.Status)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func balancerConfig(cfg config.BalancerConfig) (timetable.BalancerConfig, error) {
	policy, err := timetable.ParsePolicy(cfg.Policy)
	if err != nil {
		return timetable.BalancerConfig{}, err
	}
	out := timetable.DefaultBalancerConfig()
	out.Iterations = cfg.Iterations
	out.Candidates = cfg.Candidates
	out.Samples = cfg.Samples
	out.TabuSize = cfg.TabuSize
	out.Policy = policy
	out.Workers = cfg.Workers
	return out, nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client, queue *jobs.Queue) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
		"exports": func(context.Context) error {
			if stats := queue.Stats(); stats.Depth >= exportBacklog {
				return fmt.Errorf("export backlog full (%d queued)", stats.Depth)
			}
			return nil
		},
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
