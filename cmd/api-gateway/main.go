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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-elective-api/api/swagger"
	"github.com/noah-isme/sma-elective-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-elective-api/internal/middleware"
	"github.com/noah-isme/sma-elective-api/internal/models"
	"github.com/noah-isme/sma-elective-api/internal/repository"
	"github.com/noah-isme/sma-elective-api/internal/service"
	"github.com/noah-isme/sma-elective-api/pkg/cache"
	"github.com/noah-isme/sma-elective-api/pkg/config"
	"github.com/noah-isme/sma-elective-api/pkg/database"
	"github.com/noah-isme/sma-elective-api/pkg/jobs"
	"github.com/noah-isme/sma-elective-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-elective-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-elective-api/pkg/middleware/requestid"
)

const (
	cachePrefix     = "sma-elective:"
	shutdownTimeout = 15 * time.Second
)

// @title SMA Elective API
// @version 1.0.0
// @description Elective assignment status tracking and teacher/lesson recommendations.
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
		logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, cachePrefix, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Electives.StatsCacheTTL, logr, redisClient != nil)

	classRepo := repository.NewClassRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	slotRepo := repository.NewScheduleSlotRepository(db)
	settingRepo := repository.NewSchoolSettingRepository(db)
	statusRepo := repository.NewElectiveStatusRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)

	statusSvc := service.NewElectiveStatusService(classRepo, assignmentRepo, statusRepo, cacheSvc, metricsSvc, logr, service.ElectiveStatusConfig{
		RequiredQuota: cfg.Electives.RequiredQuota,
		CacheTTL:      cfg.Electives.StatsCacheTTL,
	})
	suggestionSvc := service.NewSuggestionService(service.SuggestionStores{
		Classes:     classRepo,
		Lessons:     lessonRepo,
		Teachers:    teacherRepo,
		Assignments: assignmentRepo,
		Slots:       slotRepo,
		Settings:    settingRepo,
		Statuses:    statusRepo,
		Suggestions: suggestionRepo,
		Tx:          database.NewTransactor(db),
	}, service.SuggestionConfig{
		SuggestionLimit:    cfg.Electives.SuggestionLimit,
		DefaultWeeklyHours: cfg.Electives.DefaultWeeklyHours,
	}, cacheSvc, metricsSvc, logr)
	reportSvc := service.NewReportService(statusSvc, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	refreshQueue := jobs.NewQueue("suggestions", handler.RefreshJob(suggestionSvc), jobs.QueueConfig{
		Workers:    cfg.Electives.RefreshWorkers,
		MaxRetries: cfg.Electives.RefreshRetries,
		RetryDelay: cfg.Electives.RefreshRetryDelay,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()

	electiveHandler := handler.NewElectiveHandler(statusSvc, reportSvc)
	suggestionHandler := handler.NewSuggestionHandler(suggestionSvc, refreshQueue, validator.New())
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Electives.Enabled {
		api := r.Group(cfg.APIPrefix)
		electives := api.Group("/electives")
		electives.Use(internalmiddleware.JWT(tokenSvc))

		readers := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
		writers := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

		electives.GET("/status", readers, electiveHandler.List)
		electives.GET("/status/:classId", readers, electiveHandler.Get)
		electives.POST("/status/refresh", writers, electiveHandler.RefreshAll)
		electives.POST("/status/:classId/refresh", writers, electiveHandler.Refresh)
		electives.GET("/incomplete", readers, electiveHandler.Incomplete)
		electives.GET("/statistics", readers, electiveHandler.Statistics)
		electives.GET("/completion", readers, electiveHandler.Completion)
		electives.GET("/distribution", readers, electiveHandler.Distribution)
		electives.GET("/export", readers, electiveHandler.Export)
		electives.GET("/metrics", writers, metricsHandler.Snapshot)

		suggestions := electives.Group("/suggestions")
		suggestions.GET("/:classId", readers, suggestionHandler.List)
		suggestions.POST("/:classId/generate", writers, suggestionHandler.Generate)
		suggestions.POST("/score", readers, suggestionHandler.Score)
		suggestions.POST("/apply/:id", writers, suggestionHandler.Apply)
		suggestions.POST("/refresh", writers, suggestionHandler.Refresh)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
