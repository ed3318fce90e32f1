package main

import (
	"context"
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

	_ "github.com/noah-isme/qcgate-api/api/swagger"
	"github.com/noah-isme/qcgate-api/internal/handler"
	"github.com/noah-isme/qcgate-api/internal/middleware"
	"github.com/noah-isme/qcgate-api/internal/models"
	"github.com/noah-isme/qcgate-api/internal/repository"
	"github.com/noah-isme/qcgate-api/internal/service"
	"github.com/noah-isme/qcgate-api/pkg/cache"
	"github.com/noah-isme/qcgate-api/pkg/config"
	"github.com/noah-isme/qcgate-api/pkg/database"
	"github.com/noah-isme/qcgate-api/pkg/export"
	"github.com/noah-isme/qcgate-api/pkg/jobs"
	"github.com/noah-isme/qcgate-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/qcgate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/qcgate-api/pkg/middleware/requestid"
	"github.com/noah-isme/qcgate-api/pkg/storage"
)

// @title QC Gate API
// @version 1.0.0
// @description Testing gate and approval entitlement engine for apparel compliance
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	collectionRepo := repository.NewCollectionRepository(db)
	componentRepo := repository.NewComponentRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Engine.SnapshotCacheTTL, logr, cfg.Engine.CacheEnabled)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "qcgate-api",
	})

	entitlementService := service.NewEntitlementService(entitlementRepo, validate, logr)
	componentService := service.NewComponentService(componentRepo, validate, logr)
	collectionService := service.NewCollectionService(collectionRepo, componentRepo, auditRepo, entitlementService, cacheService, validate, logr, service.CollectionServiceConfig{
		ConflictRetries: cfg.Engine.ConflictRetries,
		SnapshotTTL:     cfg.Engine.SnapshotCacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportHandler *handler.ReportHandler
	var reportService *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportService := service.NewExportService(collectionRepo, auditRepo, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		reportWorker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportService = service.NewReportService(reportRepo, collectionRepo, reportQueue, exportService, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportService.RecoverPendingJobs(ctx)
		go reportService.StartCleanup(ctx)

		reportHandler = handler.NewReportHandler(reportService, logr)
	}

	authHandler := handler.NewAuthHandler(authService)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	componentHandler := handler.NewComponentHandler(componentService)
	entitlementHandler := handler.NewEntitlementHandler(entitlementService)
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
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/system", metricsHandler.System)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	authorized := api.Group("")
	authorized.Use(middleware.JWT(authService))
	{
		authorized.GET("/auth/me", authHandler.Me)
		authorized.POST("/auth/logout", authHandler.Logout)
		authorized.POST("/auth/change-password", authHandler.ChangePassword)

		collections := authorized.Group("/collections")
		{
			collections.GET("", collectionHandler.List)
			collections.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.Create)
			collections.GET("/:id", collectionHandler.Get)
			collections.GET("/:id/audit", collectionHandler.AuditTrail)
			collections.POST("/:id/components", collectionHandler.LinkComponent)
			collections.DELETE("/:id/components/:componentId", collectionHandler.UnlinkComponent)
			collections.POST("/:id/gates/submit", collectionHandler.SubmitGate)
			collections.POST("/:id/gates/start", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.StartGate)
			collections.POST("/:id/gates/outcome", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.RecordGateOutcome)
			collections.POST("/:id/gates/approve", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.ApproveGate)
			collections.PUT("/:id/care-label", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.CompleteCareLabel)
			collections.POST("/:id/gsw/upload", collectionHandler.UploadGSW)
			collections.POST("/:id/gsw/submit", collectionHandler.SubmitGSW)
			collections.POST("/:id/gsw/approve", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.ApproveGSW)
			collections.POST("/:id/gsw/reject", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), collectionHandler.RejectGSW)
		}

		components := authorized.Group("/components")
		{
			components.GET("", componentHandler.List)
			components.GET("/classify", componentHandler.Classify)
			components.GET("/:id", componentHandler.Get)
			components.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), componentHandler.Create)
			components.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleQA), componentHandler.Update)
		}

		entitlements := authorized.Group("/entitlements")
		{
			entitlements.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), entitlementHandler.List)
			entitlements.PUT("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), entitlementHandler.Set)
			entitlements.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), "SELF"), entitlementHandler.Get)
		}

		if reportHandler != nil {
			reports := authorized.Group("/reports")
			{
				reports.POST("/generate", reportHandler.GenerateReport)
				reports.GET("/status/:id", reportHandler.ReportStatus)
			}
		}
	}

	if reportHandler != nil {
		api.GET("/export/:token", middleware.OptionalJWT(authService), reportHandler.DownloadReport)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
	logr.Sugar().Infow("server exited")
}
