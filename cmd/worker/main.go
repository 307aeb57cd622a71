package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/reel-forge/adapters/event"
	"github.com/khoahotran/reel-forge/adapters/ffmpeg"
	"github.com/khoahotran/reel-forge/adapters/llm"
	"github.com/khoahotran/reel-forge/adapters/media_storage"
	"github.com/khoahotran/reel-forge/adapters/metrics"
	"github.com/khoahotran/reel-forge/adapters/persistence"
	"github.com/khoahotran/reel-forge/adapters/videogen"
	"github.com/khoahotran/reel-forge/internal/application/usecase/generation"
	"github.com/khoahotran/reel-forge/internal/application/usecase/video"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/khoahotran/reel-forge/pkg/tracing"
)

const (
	serviceName = "reel-forge-worker"
	// retryBackoff spaces out reattempts of a job that hit an infrastructure error.
	retryBackoff = 15 * time.Second
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, logger.Options{File: cfg.Log.File})
	defer appLogger.Sync()
	appLogger.Info("Starting Reel Forge Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Warn("Tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	// Database
	if err := persistence.RunMigrations(cfg.DB.MigrationsPath, cfg.DB.DSN, appLogger); err != nil {
		appLogger.Fatal("cannot migrate database", err)
	}
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

	// External services
	store, err := media_storage.NewObjectStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot initialize object store", err)
	}
	ffmpegRunner := ffmpeg.NewRunner(cfg.Pipeline.FFmpegPath, appLogger)
	if err := ffmpegRunner.Check(ctx); err != nil {
		appLogger.Fatal("ffmpeg unavailable", err)
	}
	llmService, err := llm.NewOpenAILLMAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot initialize LLM adapter", err)
	}
	videoHTTP, err := videogen.NewDefaultHTTPClient(ctx)
	if err != nil {
		appLogger.Fatal("cannot authenticate video API", err)
	}
	videoGenerator, err := videogen.NewVeoClient(cfg, videoHTTP, appLogger)
	if err != nil {
		appLogger.Fatal("cannot initialize video API client", err)
	}

	// Repositories
	contentRepo := persistence.NewPostgresContentRepo(dbPool)
	segmentRepo := persistence.NewPostgresSegmentRepo(dbPool, appLogger)
	mediaRepo := persistence.NewPostgresMediaRepo(dbPool, appLogger)
	jobStore := persistence.NewRedisJobStatusStore(redisClient, cfg.Pipeline.JobStatusTTL)
	admissionLock := persistence.NewRedisAdmissionLock(redisClient, persistence.RedisAdmissionLockConfig{
		TTL:         cfg.Pipeline.LockTTL,
		WaitTimeout: cfg.Pipeline.LockWaitTimeout,
	}, appLogger)

	// Pipeline
	sanitizer, err := video.NewSanitizer()
	if err != nil {
		appLogger.Fatal("cannot load sanitizer rules", err)
	}
	strategy, err := video.ParseConcatStrategy(cfg.Pipeline.ConcatStrategy)
	if err != nil {
		appLogger.Fatal("invalid concat strategy", err)
	}
	orchestrator := video.NewSegmentOrchestrator(
		segmentRepo,
		videoGenerator,
		video.NewFrameExtractor(store, ffmpegRunner, cfg.App.TempDir, appLogger),
		store,
		sanitizer,
		video.OrchestratorConfig{
			PollInterval:    cfg.Pipeline.PollInterval,
			PollMaxAttempts: cfg.Pipeline.PollMaxAttempts,
			WaitInterval:    cfg.Pipeline.WaitInterval,
			WaitTimeout:     cfg.Pipeline.WaitTimeout,
		},
		appLogger,
	)
	pipeline := video.NewGenerateExtendedVideoUseCase(
		contentRepo,
		mediaRepo,
		video.NewScriptComposer(llmService, appLogger),
		orchestrator,
		video.NewConcatenationEngine(ffmpegRunner, cfg.App.TempDir, strategy, appLogger),
		store,
		video.NewCleanup(store, appLogger),
		cfg.App.MediaDir,
		appLogger,
	)
	processJobUC := generation.NewProcessGenerationJobUseCase(contentRepo, admissionLock, jobStore, kafkaClient, pipeline, appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicGenerationRequested,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	metricsServer := metrics.StartMetricsServer(cfg.Metrics.Port, appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consume(gctx, consumer, processJobUC, appLogger)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	appLogger.Info("Worker listening", zap.String("topic", event.TopicGenerationRequested), zap.String("group_id", cfg.Kafka.GroupID))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Worker stopped with error", err)
	}
	appLogger.Info("Worker stopped")
}

// consume handles one job at a time. A message is committed once its job has a
// recorded outcome; infrastructure errors retry the same message. On shutdown an
// admitted job runs to its end before consume returns; a job still waiting for
// admission stays uncommitted and is redelivered.
func consume(ctx context.Context, consumer *kafka.Reader, uc *generation.ProcessGenerationJobUseCase, log logger.Logger) error {
	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("Failed to read message from Kafka", err)
			continue
		}

		l := log.With(zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		var payload event.GenerationRequestedPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			l.Error("Failed to unmarshal event, skipping", err)
			commitMessage(ctx, consumer, msg, l)
			continue
		}

		for {
			result, err := uc.Execute(ctx, payload)
			if err == nil {
				l.Info("Job finished", zap.String("job_id", payload.JobID), zap.String("status", string(result.Status)))
				break
			}
			l.Error("Job could not run, retrying", err, zap.String("job_id", payload.JobID))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		commitMessage(ctx, consumer, msg, l)
	}
}

func commitMessage(ctx context.Context, consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
