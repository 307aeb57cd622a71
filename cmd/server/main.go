package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/khoahotran/reel-forge/adapters/event"
	httpAdapter "github.com/khoahotran/reel-forge/adapters/http"
	"github.com/khoahotran/reel-forge/adapters/persistence"
	"github.com/khoahotran/reel-forge/internal/application/usecase/generation"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/auth"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/khoahotran/reel-forge/pkg/tracing"
)

const serviceName = "reel-forge-api"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, logger.Options{File: cfg.Log.File})
	defer appLogger.Sync()
	appLogger.Info("Start Reel Forge API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Warn("Tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Repositories
	contentRepo := persistence.NewPostgresContentRepo(dbPool)
	segmentRepo := persistence.NewPostgresSegmentRepo(dbPool, appLogger)
	mediaRepo := persistence.NewPostgresMediaRepo(dbPool, appLogger)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	jobStore := persistence.NewRedisJobStatusStore(redisClient, cfg.Pipeline.JobStatusTTL)
	admissionLock := persistence.NewRedisAdmissionLock(redisClient, persistence.RedisAdmissionLockConfig{
		TTL:         cfg.Pipeline.LockTTL,
		WaitTimeout: cfg.Pipeline.LockWaitTimeout,
	}, appLogger)

	// Use Cases
	enqueueUseCase := generation.NewEnqueueGenerationUseCase(contentRepo, jobStore, kafkaClient, appLogger)
	getSegmentsUseCase := generation.NewGetSegmentsUseCase(contentRepo, segmentRepo)
	getMediaUseCase := generation.NewGetMediaUseCase(mediaRepo)
	getJobStatusUseCase := generation.NewGetJobStatusUseCase(jobStore, admissionLock)

	// HTTP Handlers
	generationHandler := httpAdapter.NewGenerationHandler(
		enqueueUseCase,
		getSegmentsUseCase,
		getMediaUseCase,
		getJobStatusUseCase,
		appLogger,
	)

	// Middleware
	authMiddleware := httpAdapter.AuthMiddleware(jwtSvc, appLogger)
	errorMiddleware := httpAdapter.ErrorMiddleware(appLogger)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), errorMiddleware)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			if err := dbPool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "postgres": err.Error()})
				return
			}
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "redis": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})

		admin := api.Group("/admin")
		admin.Use(authMiddleware)
		generationHandler.RegisterRoutes(admin)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
