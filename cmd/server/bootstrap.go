package main

import (
	"context"
	"fmt"

	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/handlers"
	"github.com/ucu-innovators/hub/backend/internal/middleware"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/services"
	"github.com/ucu-innovators/hub/backend/internal/storage"
	"github.com/ucu-innovators/hub/backend/internal/utils"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg              *config.Config
	db               *gorm.DB
	authService      *services.AuthService
	systemLogs       *services.SystemLogService
	taskQueue        services.TaskQueue
	worker           *services.Worker
	logCleanup       *services.LogCleanupScheduler
	store            storage.Storage
	authLimiter      *middleware.RateLimiter
	authHandler      *handlers.AuthHandler
	projectHandler   *handlers.ProjectHandler
	commentHandler   *handlers.CommentHandler
	userHandler      *handlers.UserHandler
	analytics        *handlers.AnalyticsHandler
	systemLogHandler *handlers.SystemLogHandler
	health           *handlers.HealthHandler
}

// bootstrap connects the database and starts the background services.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetBcryptCost(cfg.Security.BcryptCost)

	if err := models.InitDB(&cfg.Database); err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	app, err := wire(ctx, cfg, models.GetDB())
	if err != nil {
		return nil, err
	}

	if err := app.authService.CreateAdminIfNotExists(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	if err := app.logCleanup.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start log cleanup scheduler")
	}

	if app.worker != nil {
		if err := app.worker.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start task worker")
		}
	}

	return app, nil
}

// wire builds services and handlers on top of an open database.
func wire(ctx context.Context, cfg *config.Config, db *gorm.DB) (*appServices, error) {
	store, err := storage.New(ctx, &cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	mailer := services.NewEmailService(&cfg.Email)
	notifications := services.NewNotificationService(db, mailer)

	// Redis backed queue when enabled, otherwise in-process
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifications.ProcessReviewNotification)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifications.ProcessReviewNotification)
		}
	}

	authService := services.NewAuthService(db, &cfg.JWT, &cfg.Admin)
	systemLogs := services.NewSystemLogService(db)

	return &appServices{
		cfg:              cfg,
		db:               db,
		authService:      authService,
		systemLogs:       systemLogs,
		taskQueue:        taskQueue,
		worker:           worker,
		logCleanup:       services.NewLogCleanupScheduler(systemLogs, &cfg.Audit),
		store:            store,
		authHandler:      handlers.NewAuthHandler(authService),
		projectHandler:   handlers.NewProjectHandler(services.NewProjectService(db, taskQueue, store, &cfg.Upload), &cfg.Upload),
		commentHandler:   handlers.NewCommentHandler(services.NewCommentService(db)),
		userHandler:      handlers.NewUserHandler(services.NewUserService(db)),
		analytics:        handlers.NewAnalyticsHandler(services.NewAnalyticsService(db)),
		systemLogHandler: handlers.NewSystemLogHandler(systemLogs),
		health:           handlers.NewHealthHandler(db, taskQueue),
	}, nil
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.logCleanup.Stop()
	if s.authLimiter != nil {
		s.authLimiter.Stop()
	}
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
