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

	_ "github.com/noah-isme/subsidy-console-gateway/api/swagger"
	"github.com/noah-isme/subsidy-console-gateway/internal/handler"
	"github.com/noah-isme/subsidy-console-gateway/internal/middleware"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/internal/repository"
	"github.com/noah-isme/subsidy-console-gateway/internal/service"
	"github.com/noah-isme/subsidy-console-gateway/pkg/cache"
	"github.com/noah-isme/subsidy-console-gateway/pkg/config"
	"github.com/noah-isme/subsidy-console-gateway/pkg/jobs"
	"github.com/noah-isme/subsidy-console-gateway/pkg/logger"
	corsmiddleware "github.com/noah-isme/subsidy-console-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/subsidy-console-gateway/pkg/middleware/requestid"
)

// @title Subsidy Console Gateway
// @version 0.1.0
// @description Session-scoped synchronization layer for the enterprise subsidy request console
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	metricsSvc := service.NewMetricsService()

	redisClient, err := cache.NewOptionalRedis(cfg.Configuration.CacheEnabled, cfg.Redis)
	if err != nil {
		logr.Warn("configuration cache disabled: redis unavailable", zap.Error(err))
		redisClient = nil
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, "console-gateway", logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Configuration.CacheTTL, logr, redisClient != nil)

	reconciler := jobs.NewQueue("subsidy-configuration", jobs.QueueConfig{
		Workers:    cfg.Reconcile.Workers,
		MaxRetries: cfg.Reconcile.MaxRetries,
		RetryDelay: cfg.Reconcile.RetryDelay,
		Logger:     logr,
	})
	reconciler.Handle(service.ReconcileJobType, service.HandleReconcileJob)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	apiClient := repository.NewAPIClient(cfg.EnterpriseAPI.BaseURL, &http.Client{Timeout: cfg.EnterpriseAPI.Timeout}, metricsSvc)

	sessions := service.NewConsoleSessionService(service.ConsoleSessionServiceConfig{
		APIFactory:      enterpriseAPIFactory(apiClient),
		SubsidyRequests: cfg.SubsidyRequests,
		Lists:           cfg.Lists,
		Cache:           cacheSvc,
		CacheTTL:        cfg.Configuration.CacheTTL,
		Reconciler:      reconciler,
		IdleTTL:         cfg.Sessions.IdleTTL,
		Logger:          logr,
		Metrics:         metricsSvc,
	})
	sessions.StartSweeper(ctx, cfg.Sessions.SweepInterval)
	defer sessions.Close()

	validate := validator.New()
	authSvc := service.NewAuthService(cfg.JWT, logr)
	actionSvc := service.NewSubsidyRequestActionService(validate, logr)

	sessionHandler := handler.NewSessionHandler(sessions, validate, logr, cfg.Sessions.StreamHeartbeat, corsmiddleware.OriginChecker(cfg.CORS.AllowedOrigins))
	requestHandler := handler.NewSubsidyRequestHandler(sessions, actionSvc, validate)
	licenseHandler := handler.NewLicenseHandler(sessions, validate)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if cfg.EnterpriseAPI.BaseURL == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "enterprise api not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "cache": cacheSvc.Enabled()})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleEnterpriseAdmin, models.RoleStaff))
	{
		api.POST("/sessions", sessionHandler.Mount)
		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.DELETE("/sessions/:id", sessionHandler.Unmount)
		api.GET("/sessions/:id/stream", sessionHandler.Stream)

		api.PUT("/sessions/:id/requests/:channel/query", requestHandler.Query)
		api.GET("/sessions/:id/requests/:channel", requestHandler.Get)
		api.POST("/sessions/:id/requests/:channel/:requestId/approve", middleware.Audit(logr, "subsidy_request.approve"), requestHandler.Approve)
		api.POST("/sessions/:id/requests/:channel/:requestId/decline", middleware.Audit(logr, "subsidy_request.decline"), requestHandler.Decline)
		api.POST("/sessions/:id/overview/refresh", requestHandler.RefreshOverview)
		api.PATCH("/sessions/:id/configuration", middleware.Audit(logr, "subsidy_configuration.update"), requestHandler.UpdateConfiguration)

		api.PUT("/sessions/:id/licenses/query", licenseHandler.Query)
		api.GET("/sessions/:id/licenses", licenseHandler.Get)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func enterpriseAPIFactory(base *repository.APIClient) service.EnterpriseAPIFactory {
	return func(token string) service.EnterpriseAPI {
		client := base.WithToken(token)
		return service.EnterpriseAPI{
			Requests:      repository.NewSubsidyRequestRepository(client),
			Overview:      repository.NewOverviewRepository(client),
			Configuration: repository.NewSubsidyConfigurationRepository(client),
			Inventory:     repository.NewInventoryRepository(client),
			Licenses:      repository.NewLicenseAssignmentRepository(client),
		}
	}
}
