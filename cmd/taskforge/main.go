package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	tfhttp "github.com/Strob0t/TaskForge/internal/adapter/http"
	tfnats "github.com/Strob0t/TaskForge/internal/adapter/nats"
	"github.com/Strob0t/TaskForge/internal/adapter/otel"
	"github.com/Strob0t/TaskForge/internal/adapter/postgres"
	"github.com/Strob0t/TaskForge/internal/adapter/ristretto"
	"github.com/Strob0t/TaskForge/internal/adapter/ws"
	"github.com/Strob0t/TaskForge/internal/config"
	"github.com/Strob0t/TaskForge/internal/logger"
	"github.com/Strob0t/TaskForge/internal/ratelimit"
	"github.com/Strob0t/TaskForge/internal/registry"
	"github.com/Strob0t/TaskForge/internal/resilience"
	"github.com/Strob0t/TaskForge/internal/routing"
	"github.com/Strob0t/TaskForge/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"strategy", cfg.Dispatch.Strategy,
		"max_concurrent", cfg.Rate.Limits.MaxConcurrent,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := otel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Core ---
	strategy, err := routing.New(cfg.Dispatch.Strategy)
	if err != nil {
		return fmt.Errorf("routing: %w", err)
	}

	reg := registry.New()
	dispatcher := service.NewDispatcher(reg, strategy, cfg.Dispatch.MaxParallel)
	dispatcher.SetMetrics(metrics)

	hub := ws.NewHub()
	dispatcher.SetBroadcaster(hub)

	// --- Optional infrastructure ---
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		dispatcher.SetHistoryStore(postgres.NewHistoryStore(pool))
		slog.Info("postgres history store attached")
	}

	if cfg.NATS.URL != "" {
		queue, err := tfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()

		brk := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		dispatcher.SetQueue(queue, brk)
	}

	// --- Rate limiter ---
	limiter := ratelimit.New(cfg.Rate.Limits)
	limiter.SetMetrics(metrics)
	stopProcessor := limiter.StartQueueProcessor(cfg.Rate.ProcessorInterval)
	defer stopProcessor()

	// --- Response cache ---
	respCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer respCache.Close()

	// --- HTTP ---
	handlers := &tfhttp.Handlers{
		Dispatcher: dispatcher,
		Limiter:    limiter,
		Cache:      respCache,
		MetricsTTL: cfg.Cache.MetricsTTL,
	}

	r := chi.NewRouter()
	r.Use(tfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tfhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ws", hub.HandleWS)

	tfhttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-done:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Reject anything still queued so no caller is left hanging.
	if cleared := limiter.ClearQueue(); cleared > 0 {
		slog.Info("pending requests rejected on shutdown", "count", cleared)
	}

	return nil
}
