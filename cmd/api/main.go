// Package main is the entry point for the channel-insight-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"channel-insight-service/internal/app/service"
	"channel-insight-service/internal/config"
	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/gemini"
	"channel-insight-service/internal/infra/postgres"
	"channel-insight-service/internal/infra/postgres/migrations"
	"channel-insight-service/internal/infra/provider/registry"
	rediscache "channel-insight-service/internal/infra/redis"
	"channel-insight-service/internal/infra/report"
	"channel-insight-service/internal/job"
	"channel-insight-service/internal/logger"
	"channel-insight-service/internal/transport/httpserver"
	"channel-insight-service/internal/transport/httpserver/middleware"
	"channel-insight-service/internal/validator"
	"channel-insight-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
		_ = log.Close()
	}()

	log.Info("starting channel-insight-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.String("provider", cfg.Provider.Kind),
	)

	ctx := context.Background()

	// Analytics policy is validated before any connection is opened
	policy, err := cfg.Analytics.Policy()
	if err != nil {
		log.Fatal("invalid analytics policy", zap.Error(err))
	}
	engine, err := domain.NewEngine(policy)
	if err != nil {
		log.Fatal("failed to create analytics engine", zap.Error(err))
	}

	// Connect to database
	db, err := postgres.NewConnection(ctx,
		postgres.Config{
			DSN:          cfg.Database.DSN(),
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
			Debug:        cfg.App.Debug,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	repo := postgres.NewRepository(db)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))

	// Cache is optional; a nil interface disables it
	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
		log.Info("cache enabled",
			zap.Duration("analysis_ttl", cfg.Cache.AnalysisTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("cache disabled")
	}

	// Metrics provider
	metricsProvider, err := registry.NewProvider(ctx, cfg.Provider, log.Logger)
	if err != nil {
		log.Fatal("failed to create metrics provider", zap.Error(err))
	}

	// Narrative generator is optional; a nil interface disables it
	var generator domain.NarrativeGenerator
	if cfg.Gemini.Enabled {
		g, err := gemini.New(ctx, gemini.Config{
			APIKey:          cfg.Gemini.APIKey,
			Model:           cfg.Gemini.Model,
			FallbackModels:  cfg.Gemini.FallbackModels,
			Temperature:     cfg.Gemini.Temperature,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
			Timeout:         cfg.Gemini.Timeout,
		}, log.Logger)
		if err != nil {
			log.Fatal("failed to create narrative generator", zap.Error(err))
		}
		generator = g
		log.Info("narratives enabled", zap.String("model", g.Model()))
	} else {
		log.Info("narratives disabled")
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		log.Fatal("failed to load report templates", zap.Error(err))
	}

	// Create services
	analysisSvc := service.NewAnalysisService(service.AnalysisDeps{
		Provider: metricsProvider,
		Engine:   engine,
		Channels: repo,
		Videos:   repo,
		Reports:  repo,
		Renderer: renderer,
		Cache:    cache,
	}, cfg.Cache.AnalysisTTL, cfg.Refresh.Concurrency, log.Logger)
	channelSvc := service.NewChannelService(metricsProvider, repo, repo, analysisSvc, cfg.Refresh.Concurrency, log.Logger)
	narrativeSvc := service.NewNarrativeService(analysisSvc, repo, repo, generator, log.Logger)

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:         cfg.App.Port,
			BodyLimit:    1024 * 1024, // 1MB
			Debug:        cfg.App.Debug,
			TemplateDir:  cfg.App.TemplateDir,
			WriteTimeout: cfg.App.Timeout,
		},
		httpserver.Services{
			Channels:   channelSvc,
			Analysis:   analysisSvc,
			Narratives: narrativeSvc,
		},
		[]middleware.ReadinessCheck{
			func(ctx context.Context) error { return postgres.HealthCheck(ctx, db) },
			func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		validator.New(),
		log.Logger,
	)

	// Background refresh with distributed locking
	var scheduler *job.RefreshScheduler
	if cfg.Refresh.Enabled {
		scheduler = job.NewRefreshScheduler(
			channelSvc,
			job.RefreshConfig{
				Interval:  cfg.Refresh.Interval,
				Timeout:   cfg.Refresh.Timeout,
				OnStartup: cfg.Refresh.OnStartup,
			},
			log.Logger,
			locker.NewRedisLocker(redisClient, log.Logger, cfg.App.Name),
		)
		scheduler.Start()
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		if scheduler != nil {
			scheduler.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
