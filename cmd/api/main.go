package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/cache"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/database"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/events"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/providers/calendar"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/providers/mail"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/spreadsheet"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/api/handlers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/api/routes"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/application/services"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/postgres"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/redis"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := database.InitSchema(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	// Redis backs the upload cache and dispatch events; fall back to memory
	// for a single-instance deployment.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache and events")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "ocs-alert:")
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewMemoryEventBus()
	}

	mailSender, err := mail.NewMailSender(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize mail sender")
	}

	summarizer, err := services.NewSummarizer(cfg.Clinic.AfternoonBoundary)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize summarizer")
	}

	dispatcher := services.NewDispatcher(
		mailSender,
		calendar.NewGoogleProvider(cfg.Google),
		eventBus,
		metrics,
		services.DispatcherConfig{
			Location:      cfg.Clinic.Location(),
			EventDuration: cfg.Clinic.EventDuration,
		},
	)

	ocsService := services.NewOCSService(services.OCSServiceDeps{
		Loader:     spreadsheet.NewXLSXLoader(),
		Classifier: spreadsheet.NewNameClassifier(),
		Registry:   database.NewRegistryAdapter(pgClient),
		Analysis:   database.NewAnalysisAdapter(pgClient),
		Cache:      cacheProvider,
		Dispatcher: dispatcher,
		Summarizer: summarizer,
		Metrics:    metrics,
		UploadTTL:  cfg.Clinic.UploadTTL,
	})

	router := routes.NewRouter(
		handlers.NewOCSHandler(ocsService, cfg.Server.MaxUploadSize),
		handlers.NewSSEHandler(eventBus),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 60 * time.Second,
		// dispatch requests and progress streams outlive a short write timeout
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
