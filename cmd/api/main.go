package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/quoteotter/lead-engine/internal/analytics"
	"github.com/quoteotter/lead-engine/internal/api/router"
	"github.com/quoteotter/lead-engine/internal/config"
	"github.com/quoteotter/lead-engine/internal/health"
	"github.com/quoteotter/lead-engine/internal/leads"
	"github.com/quoteotter/lead-engine/internal/observability/metrics"
	"github.com/quoteotter/lead-engine/internal/phonerisk"
	"github.com/quoteotter/lead-engine/internal/providers"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	phoneMetrics := metrics.NewPhoneMetrics(registry)
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	// Phone risk assessor: upstream reputation client when configured,
	// Redis-backed cache when available.
	var lookupClient phonerisk.LookupClient
	if cfg.PhoneReputationAPIKey != "" {
		client, err := phonerisk.NewClient(phonerisk.ClientConfig{
			BaseURL: cfg.PhoneReputationBaseURL,
			APIKey:  cfg.PhoneReputationAPIKey,
			Timeout: cfg.PhoneReputationTimeout,
		})
		if err != nil {
			return err
		}
		lookupClient = client
	} else {
		logger.Warn("PHONEREVEALR_API_KEY not set, phone screening degraded to format checks")
	}

	var phoneCache phonerisk.Cache
	if redisClient != nil {
		phoneCache = phonerisk.NewRedisCache(redisClient)
	}

	assessor := phonerisk.NewAssessor(phonerisk.AssessorConfig{
		Client:           lookupClient,
		Cache:            phoneCache,
		TTL:              cfg.PhoneCacheTTL,
		HomeCountry:      cfg.HomeCountry,
		BatchConcurrency: cfg.PhoneBatchConcurrency,
		Logger:           logger.Component("phonerisk"),
		Metrics:          phoneMetrics,
	})

	providerRepo := providers.NewPostgresRepository(pool)
	providerSvc := providers.NewService(providerRepo, logger.Component("providers"))

	leadSvc := leads.NewService(leads.ServiceConfig{
		Repo:        leads.NewPostgresRepository(pool),
		Assignments: leads.NewPostgresAssignmentRepository(pool),
		Assessor:    assessor,
		Matcher:     providerSvc,
		Logger:      logger.Component("leads"),
		Metrics:     pipelineMetrics,
	})

	healthHandler := health.NewHandler(version)
	healthHandler.AddCheck("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	handler := router.New(&router.Config{
		Logger:           logger,
		LeadsHandler:     leads.NewHandler(leadSvc, logger.Component("leads")),
		ProvidersHandler: providers.NewHandler(providerSvc, logger.Component("providers")),
		PhoneHandler:     phonerisk.NewHandler(assessor, logger.Component("phonerisk")),
		AnalyticsHandler: analytics.NewHandler(analytics.NewPostgresRepository(pool), logger.Component("analytics")),
		HealthHandler:    healthHandler,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		APIKeys:            cfg.APIKeys,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
