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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ascendia-dental/frontdesk/internal/agent"
	"github.com/ascendia-dental/frontdesk/internal/api/router"
	"github.com/ascendia-dental/frontdesk/internal/calllog"
	"github.com/ascendia-dental/frontdesk/internal/config"
	"github.com/ascendia-dental/frontdesk/internal/http/handlers"
	"github.com/ascendia-dental/frontdesk/internal/observability/metrics"
	"github.com/ascendia-dental/frontdesk/internal/office"
	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
	"github.com/ascendia-dental/frontdesk/internal/session"
	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting frontdesk API", "env", cfg.Env, "port", cfg.Port)

	gateway, err := opendental.New(opendental.Config{
		BaseURL:      cfg.OpenDentalBaseURL,
		DeveloperKey: cfg.OpenDentalDeveloperKey,
		CustomerKey:  cfg.OpenDentalCustomerKey,
		Timeout:      cfg.GatewayTimeout,
	})
	if err != nil {
		logger.Error("opendental client init failed", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping failed", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	// PostgreSQL is optional: without it the turn audit log is skipped.
	var callLog *calllog.Service
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("pgx pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		callLog = calllog.NewService(calllog.NewRepository(pool), logger)
	} else {
		logger.Warn("DATABASE_URL not set, turn audit log disabled")
	}

	registry := prometheus.NewRegistry()
	agentMetrics := metrics.NewAgentMetrics(registry)

	resolver := schedule.NewResolver(gateway, logger)
	officeBuilder := office.NewBuilder(gateway, logger,
		office.WithTTL(cfg.OfficeContextTTL),
		office.WithWindowDays(cfg.OccupiedWindowDays),
	)
	agentService := agent.NewService(gateway, resolver, officeBuilder, logger,
		agent.WithMetrics(agentMetrics),
		agent.WithMaxOptions(cfg.MaxSlotOptions),
		agent.WithDefaultMinutes(cfg.DefaultAppointmentMinutes),
	)

	sessions := session.NewStore(redisClient, nil)
	agentHandler := handlers.NewAgentHandler(agentService, sessions, callLog, logger)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:         logger,
			AgentHandler:   agentHandler,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("frontdesk API stopped")
}
