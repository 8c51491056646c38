package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/voicebridge/lead-marketplace/cmd/mainconfig"
	"github.com/voicebridge/lead-marketplace/internal/analytics"
	"github.com/voicebridge/lead-marketplace/internal/api/router"
	appconfig "github.com/voicebridge/lead-marketplace/internal/config"
	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/marketplace"
	"github.com/voicebridge/lead-marketplace/internal/notify"
	"github.com/voicebridge/lead-marketplace/internal/observability/metrics"
	"github.com/voicebridge/lead-marketplace/internal/payments"
	"github.com/voicebridge/lead-marketplace/internal/providers"
	"github.com/voicebridge/lead-marketplace/internal/purchases"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-marketplace API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Storage: memory repos for development, Postgres otherwise.
	var (
		leadRepo      leads.Repository
		purchaseRepo  purchases.Repository
		directory     providers.Directory
		rollupStore   analytics.Store
		memoryLeads   *leads.InMemoryRepository
		memoryBuys    *purchases.InMemoryRepository
	)
	if cfg.UseMemoryRepo || cfg.DatabaseURL == "" {
		logger.Warn("using in-memory repositories, data will not survive restarts")
		memoryLeads = leads.NewInMemoryRepository()
		memoryBuys = purchases.NewInMemoryRepository()
		leadRepo = memoryLeads
		purchaseRepo = memoryBuys
		directory = providers.NewStaticDirectory()
		rollupStore = analytics.NewMemoryStore(memoryLeads, memoryBuys)
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadRepo = leads.NewPostgresRepository(pool)
		purchaseRepo = purchases.NewPostgresRepository(pool)
		directory = providers.NewPostgresDirectory(pool)
		rollupStore = analytics.NewPostgresStore(pool)
	}

	// Analytics snapshot cache (optional).
	var snapshotCache *analytics.SnapshotCache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, analytics cache disabled", "error", err)
		} else {
			snapshotCache = analytics.NewSnapshotCache(redisClient, cfg.AnalyticsCacheTTL)
		}
	}

	// Payment gateway. The fake gateway approves everything and is only
	// for development and demos.
	var gateway payments.Gateway
	switch {
	case cfg.AllowFakePayments:
		logger.Warn("fake payment gateway enabled, all charges approve")
		gateway = payments.NewFakeGateway()
	default:
		if cfg.PaymentProviderKey == "" {
			logger.Warn("payment provider key not configured, charges will fail")
		}
		gateway = payments.NewStubGateway(cfg.PaymentProviderKey)
	}

	// Notification queue.
	var queue notify.Queue
	if cfg.UseMemoryQueue || cfg.NotificationQueueURL == "" {
		queue = notify.NewMemoryQueue(256)
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue = notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotificationQueueURL)
	}
	publisher := notify.NewPublisher(queue, logger)

	registry := prometheus.NewRegistry()
	marketplaceMetrics := metrics.NewMarketplaceMetrics(registry)

	// Seed the streaming totals from the durable rows so a restart does
	// not report zeros against a populated database.
	counters := analytics.NewCounters()
	if totals, err := rollupStore.Totals(ctx); err != nil {
		logger.Warn("failed to seed analytics totals, starting from zero", "error", err)
	} else {
		counters.Restore(totals)
	}

	service := marketplace.NewService(marketplace.Config{
		Leads:       leadRepo,
		Purchases:   purchaseRepo,
		Directory:   directory,
		Gateway:     gateway,
		Publisher:   publisher,
		Counters:    counters,
		Store:       rollupStore,
		Cache:       snapshotCache,
		Metrics:     marketplaceMetrics,
		Logger:      logger,
		LeadTTL:     cfg.LeadTTL,
		MatchedTopN: cfg.MatchedTopN,
	})
	handler := marketplace.NewHandler(service, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Marketplace:        handler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
