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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classbook/classbook-api/api/swagger"
	"github.com/classbook/classbook-api/internal/calendar"
	"github.com/classbook/classbook-api/internal/handler"
	"github.com/classbook/classbook-api/internal/identity"
	"github.com/classbook/classbook-api/internal/mailer"
	"github.com/classbook/classbook-api/internal/middleware"
	"github.com/classbook/classbook-api/internal/repository"
	"github.com/classbook/classbook-api/internal/service"
	"github.com/classbook/classbook-api/pkg/cache"
	"github.com/classbook/classbook-api/pkg/config"
	"github.com/classbook/classbook-api/pkg/database"
	"github.com/classbook/classbook-api/pkg/jobs"
	"github.com/classbook/classbook-api/pkg/logger"
	corsmiddleware "github.com/classbook/classbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classbook/classbook-api/pkg/middleware/requestid"
)

// @title Classbook API
// @version 1.0.0
// @description Teacher availability and student booking service
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.Database.MigrationsDir); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, slot cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Slots.CacheTTL, logr, cfg.Slots.CacheEnabled && redisClient != nil)

	teacherRepo := repository.NewTeacherRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	calendarClient := calendar.NewGoogleClient(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CalendarID)
	mailSender := mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	googleProvider := identity.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret)

	authSvc := service.NewAuthService(teacherRepo, googleProvider, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, nil, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheSvc, nil, logr)
	slotSvc := service.NewSlotService(teacherRepo, availabilityRepo, bookingRepo, cacheSvc, logr)

	var bookingSvc *service.BookingService
	queue := jobs.NewQueue("booking-side-effects", func(ctx context.Context, job jobs.Job) error {
		return bookingSvc.HandleJob(ctx, job)
	}, jobs.Options{
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.Notify.RetryDelay,
		Logger:     logr,
	})
	bookingSvc = service.NewBookingService(bookingRepo, teacherRepo, queue, calendarClient, mailSender, cacheSvc, metricsSvc, nil, logr)

	queue.Start(ctx)
	defer queue.Stop()

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

	r.GET("/ready", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(checkCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": err.Error()})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(checkCtx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	slotHandler := handler.NewSlotHandler(slotSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, teacherSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/slots", slotHandler.List)
		api.POST("/bookings", bookingHandler.Create)
		api.POST("/auth/google", authHandler.SignInWithGoogle)

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			protected.GET("/availability", availabilityHandler.List)
			protected.POST("/availability", availabilityHandler.Toggle)
			protected.GET("/bookings", bookingHandler.List)
			protected.GET("/bookings/export", bookingHandler.Export)
			protected.POST("/bookings/:id/cancel", bookingHandler.Cancel)
			protected.GET("/teachers/me", teacherHandler.Me)
			protected.PUT("/teachers/me/timezone", teacherHandler.UpdateTimezone)
		}
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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
