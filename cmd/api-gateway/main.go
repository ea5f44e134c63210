package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ug1-portal-api/api/swagger"
	"github.com/noah-isme/ug1-portal-api/internal/handler"
	"github.com/noah-isme/ug1-portal-api/internal/rbac"
	"github.com/noah-isme/ug1-portal-api/internal/repository"
	"github.com/noah-isme/ug1-portal-api/internal/router"
	"github.com/noah-isme/ug1-portal-api/internal/service"
	"github.com/noah-isme/ug1-portal-api/pkg/cache"
	"github.com/noah-isme/ug1-portal-api/pkg/config"
	"github.com/noah-isme/ug1-portal-api/pkg/database"
	"github.com/noah-isme/ug1-portal-api/pkg/export"
	"github.com/noah-isme/ug1-portal-api/pkg/jobs"
	"github.com/noah-isme/ug1-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ug1-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ug1-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/ug1-portal-api/pkg/storage"
)

// @title UG-1 Portal API
// @version 1.0.0
// @description Enrollment form submission and approval workflow
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"database": db}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("stats cache unavailable", zap.String("redis_host", cfg.Redis.Host), zap.Int("redis_db", cfg.Redis.DB), zap.Error(err))
		}
		defer redisClient.Close()
		redisCache := repository.NewCacheRepository(redisClient, logr)
		cacheRepo = redisCache
		checks["redis"] = handler.PingerFunc(redisCache.Ping)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.StatsTTL, logr, cfg.Cache.Enabled)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	ugformRepo := repository.NewUGFormRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifier := service.NewNotificationService(notificationRepo, metricsSvc, logr)
	notifyQueue := jobs.NewQueue("notifications", notifier.Handle, jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		BufferSize: 256,
		MaxRetries: cfg.Notify.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()
	notifier.AttachQueue(notifyQueue)

	fileStore, err := storage.NewLocalStorage(cfg.PDF.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare pdf storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.PDF.SignedURLSecret, cfg.PDF.SignedURLTTL)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	workflow := service.NewUGFormWorkflow(ugformRepo)
	approvalSvc := service.NewApprovalService(ugformRepo, workflow, userRepo, cacheSvc, metricsSvc, notifier, logr)
	ugformSvc := service.NewUGFormService(ugformRepo, feeRepo, userRepo, cacheSvc, metricsSvc, notifier, validate, logr)
	feeSvc := service.NewFeeService(feeRepo, userRepo, validate, logr)
	pdfSvc := service.NewUGFormPDFService(ugformRepo, fileStore, signer, userRepo, metricsSvc, export.NewPDFExporter(), service.PDFConfig{
		APIPrefix: cfg.APIPrefix,
		Retention: cfg.PDF.Retention,
	}, logr)
	go pdfSvc.RunCleanup(ctx, cfg.PDF.CleanupInterval)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, router.Dependencies{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieSettings{
			Name:   cfg.Cookie.Name,
			Domain: cfg.Cookie.Domain,
			Secure: cfg.Cookie.Secure,
		}, rbac.Default),
		Users:          handler.NewUserHandler(userSvc),
		Approval:       handler.NewApprovalHandler(approvalSvc, pdfSvc),
		UGForms:        handler.NewUGFormHandler(ugformSvc, pdfSvc, notifier),
		Fees:           handler.NewFeeHandler(feeSvc),
		Downloads:      handler.NewDownloadHandler(pdfSvc),
		Metrics:        handler.NewMetricsHandler(metricsSvc, checks),
		TokenValidator: authSvc,
		CookieName:     cfg.Cookie.Name,
		Observer:       metricsSvc,
		AuditWriter:    userRepo,
		Policy:         rbac.Default,
		Logger:         logr,
		EnableDocs:     cfg.Env != config.EnvProduction,
	})

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
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
