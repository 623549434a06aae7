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

	_ "github.com/openvolunteer/vms-api/api/swagger"
	"github.com/openvolunteer/vms-api/internal/handler"
	"github.com/openvolunteer/vms-api/internal/middleware"
	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/repository"
	"github.com/openvolunteer/vms-api/internal/service"
	"github.com/openvolunteer/vms-api/pkg/cache"
	"github.com/openvolunteer/vms-api/pkg/config"
	"github.com/openvolunteer/vms-api/pkg/database"
	"github.com/openvolunteer/vms-api/pkg/jobs"
	"github.com/openvolunteer/vms-api/pkg/logger"
	corsmiddleware "github.com/openvolunteer/vms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openvolunteer/vms-api/pkg/middleware/requestid"
)

// @title Volunteer Management API
// @version 1.0.0
// @description Volunteer catalog, shift signups, hour logging and reporting
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	organizationRepo := repository.NewOrganizationRepository(db)
	volunteerRepo := repository.NewVolunteerRepository(db)
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	jobRepo := repository.NewJobRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	volunteerShiftRepo := repository.NewVolunteerShiftRepository(db)
	editRequestRepo := repository.NewEditRequestRepository(db)
	reportRepo := repository.NewReportRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	notificationService := service.NewNotificationService(service.LogSink(logr), jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, logr)
	notificationService.Start(ctx)
	defer notificationService.Stop()

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, validate, logr)
	organizationService := service.NewOrganizationService(organizationRepo, cacheRepo, cfg.Reports.CacheTTL, validate, logr)
	volunteerService := service.NewVolunteerService(volunteerRepo, organizationRepo, validate, logr)
	eventService := service.NewEventService(eventRepo, validate, logr)
	jobService := service.NewJobService(jobRepo, eventRepo, validate, logr)
	shiftService := service.NewShiftService(shiftRepo, jobRepo, validate, logr)
	registrationService := service.NewRegistrationService(volunteerShiftRepo, shiftRepo, volunteerRepo, notificationService, validate, logr)
	hoursService := service.NewHoursService(volunteerShiftRepo, shiftRepo, validate, logr)
	editRequestService := service.NewEditRequestService(editRequestRepo, volunteerShiftRepo, shiftRepo, volunteerRepo, notificationService, validate, logr)
	reportService := service.NewReportService(reportRepo, volunteerShiftRepo, cacheRepo, cfg.Reports.CacheTTL, validate, logr)
	reminderService := service.NewReminderService(reminderRepo, notificationService, metricsService, logr)

	if cfg.Reminders.Enabled {
		go reminderService.Schedule(ctx, cfg.Reminders.RunAt)
	}

	authHandler := handler.NewAuthHandler(authService)
	organizationHandler := handler.NewOrganizationHandler(organizationService)
	volunteerHandler := handler.NewVolunteerHandler(volunteerService, hoursService)
	eventHandler := handler.NewEventHandler(eventService, jobService)
	jobHandler := handler.NewJobHandler(jobService, shiftService)
	shiftHandler := handler.NewShiftHandler(shiftService, hoursService)
	registrationHandler := handler.NewRegistrationHandler(registrationService, metricsService)
	hoursHandler := handler.NewHoursHandler(hoursService)
	editRequestHandler := handler.NewEditRequestHandler(editRequestService)
	reportHandler := handler.NewReportHandler(reportService, metricsService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.GET("/auth/me", authHandler.Me)

	admin := string(models.RoleAdmin)
	volunteerRole := string(models.RoleVolunteer)

	authed.POST("/auth/register", middleware.RBAC(admin), authHandler.Register)

	authed.GET("/organizations", organizationHandler.List)
	authed.GET("/organizations/:id", organizationHandler.Get)
	authed.POST("/organizations", middleware.RBAC(admin), organizationHandler.Create)
	authed.PUT("/organizations/:id", middleware.RBAC(admin), organizationHandler.Update)
	authed.PATCH("/organizations/:id/status", middleware.RBAC(admin), organizationHandler.SetStatus)
	authed.DELETE("/organizations/:id", middleware.RBAC(admin), organizationHandler.Delete)

	authed.GET("/volunteers", middleware.RBAC(admin), volunteerHandler.Search)
	authed.POST("/volunteers", middleware.RBAC(admin), volunteerHandler.Create)

	volunteers := authed.Group("/volunteers/:volunteer_id")
	volunteers.GET("", middleware.RBAC(admin, "SELF"), volunteerHandler.Get)
	volunteers.PUT("", middleware.RBAC(admin, "SELF"), volunteerHandler.Update)
	volunteers.DELETE("", middleware.RBAC(admin), volunteerHandler.Delete)
	volunteers.GET("/hours/total", middleware.RBAC(admin, "SELF"), volunteerHandler.TotalHours)
	volunteers.GET("/hours/unlogged", middleware.RBAC(admin, "SELF"), hoursHandler.ListUnlogged)
	volunteers.GET("/shifts", middleware.RBAC(admin, "SELF"), registrationHandler.ListForVolunteer)
	volunteers.GET("/shifts/:shift_id", middleware.RBAC(admin, "SELF"), registrationHandler.Get)
	volunteers.DELETE("/shifts/:shift_id", middleware.RBAC(admin, "SELF"), registrationHandler.Cancel)
	volunteers.POST("/shifts/:shift_id/hours", middleware.RBAC(admin, "SELF"), hoursHandler.Log)
	volunteers.PUT("/shifts/:shift_id/hours", middleware.RBAC(admin, "SELF"), hoursHandler.Update)
	volunteers.DELETE("/shifts/:shift_id/hours", middleware.RBAC(admin, "SELF"), hoursHandler.Clear)
	volunteers.GET("/reports", middleware.RBAC(admin, "SELF"), reportHandler.ListForVolunteer)

	authed.GET("/events", eventHandler.List)
	authed.GET("/events/search", eventHandler.Search)
	authed.GET("/events/:id", eventHandler.Get)
	authed.GET("/events/:id/jobs", eventHandler.ListJobs)
	authed.GET("/events/:id/check-edit", middleware.RBAC(admin), eventHandler.CheckEdit)
	authed.POST("/events", middleware.RBAC(admin), eventHandler.Create)
	authed.PUT("/events/:id", middleware.RBAC(admin), eventHandler.Update)
	authed.DELETE("/events/:id", middleware.RBAC(admin), eventHandler.Delete)

	authed.GET("/jobs", jobHandler.List)
	authed.GET("/jobs/search", jobHandler.Search)
	authed.GET("/jobs/:id", jobHandler.Get)
	authed.GET("/jobs/:id/shifts", jobHandler.ListShifts)
	authed.GET("/jobs/:id/shifts/open", jobHandler.ListOpenShifts)
	authed.GET("/jobs/:id/check-edit", middleware.RBAC(admin), jobHandler.CheckEdit)
	authed.POST("/jobs", middleware.RBAC(admin), jobHandler.Create)
	authed.PUT("/jobs/:id", middleware.RBAC(admin), jobHandler.Update)
	authed.DELETE("/jobs/:id", middleware.RBAC(admin), jobHandler.Delete)

	authed.GET("/shifts/:id", shiftHandler.Get)
	authed.GET("/shifts/:id/hours", middleware.RBAC(admin), shiftHandler.ListLoggedHours)
	authed.POST("/shifts", middleware.RBAC(admin), shiftHandler.Create)
	authed.PUT("/shifts/:id", middleware.RBAC(admin), shiftHandler.Update)
	authed.DELETE("/shifts/:id", middleware.RBAC(admin), shiftHandler.Delete)

	authed.POST("/signups", middleware.RBAC(admin, volunteerRole), registrationHandler.Register)
	authed.POST("/signups/:id/edit-requests", middleware.RBAC(admin, volunteerRole), editRequestHandler.Request)

	authed.GET("/edit-requests", middleware.RBAC(admin), editRequestHandler.ListPending)
	authed.GET("/edit-requests/:id", middleware.RBAC(admin), editRequestHandler.Get)
	authed.POST("/edit-requests/:id/approve", middleware.RBAC(admin), editRequestHandler.Approve)
	authed.POST("/edit-requests/:id/reject", middleware.RBAC(admin), editRequestHandler.Reject)

	authed.GET("/reports/summary", middleware.RBAC(admin), reportHandler.Generate)
	authed.GET("/reports/summary/csv", middleware.RBAC(admin), reportHandler.ExportCSV)
	authed.GET("/reports/summary/pdf", middleware.RBAC(admin), reportHandler.ExportPDF)
	authed.POST("/reports", middleware.RBAC(admin, volunteerRole), reportHandler.Submit)
	authed.GET("/reports", middleware.RBAC(admin), reportHandler.List)
	authed.GET("/reports/:id", middleware.RBAC(admin), reportHandler.Get)
	authed.PATCH("/reports/:id/status", middleware.RBAC(admin), reportHandler.SetStatus)

	authed.POST("/reminders/run", middleware.RBAC(admin), reminderHandler.Run)
	authed.GET("/ops/metrics", middleware.RBAC(admin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
