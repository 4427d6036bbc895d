package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bths-action/club-api/internal/handler"
	"github.com/bths-action/club-api/internal/middleware"
	"github.com/bths-action/club-api/internal/notify"
	"github.com/bths-action/club-api/internal/render"
	"github.com/bths-action/club-api/internal/repository"
	"github.com/bths-action/club-api/internal/service"
	"github.com/bths-action/club-api/pkg/cache"
	"github.com/bths-action/club-api/pkg/config"
	"github.com/bths-action/club-api/pkg/database"
	"github.com/bths-action/club-api/pkg/jobs"
	"github.com/bths-action/club-api/pkg/logger"
	corsmiddleware "github.com/bths-action/club-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bths-action/club-api/pkg/middleware/requestid"
)

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
		logr.Sugar().Warnw("redis unavailable, preview caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	renderer, err := render.New(cfg.Site)
	if err != nil {
		logr.Sugar().Fatalw("failed to build renderer", "error", err)
	}

	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	webhookClient := notify.NewWebhookClient(cfg.Webhook, logr)
	mailer := notify.NewMailer(cfg.Email, logr)
	dispatcher := notify.NewDispatcher(webhookClient, mailer, cfg.Webhook.Banner, logr)

	metricsSvc := service.NewMetricsService()
	eventSvc := service.NewEventService(eventRepo, redisClient, cfg.Events.PageSize, cfg.Events.PreviewCacheTTL, logr)
	publicationSvc := service.NewPublicationService(eventRepo, userRepo, renderer, dispatcher, validator.New(), metricsSvc, logr)

	reconcileQueue := jobs.New("reconcile", publicationSvc.Reconcile, jobs.Options{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	reconcileQueue.Start(context.Background())
	defer reconcileQueue.Stop()
	publicationSvc.UseRetryQueue(reconcileQueue)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	eventHandler := handler.NewEventHandler(eventSvc, publicationSvc)

	api := r.Group(cfg.APIPrefix)
	{
		events := api.Group("/events")
		events.GET("", eventHandler.List)
		events.GET("/:id", eventHandler.Get)
		events.POST("", middleware.Session(cfg.Session), eventHandler.Create)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
