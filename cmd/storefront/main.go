package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jcmexdev/braider-storefront/internal/pkg/cache"
	"github.com/jcmexdev/braider-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/service"
	"github.com/jcmexdev/braider-storefront/internal/storefront/infra/adapters/formcollector"
	"github.com/jcmexdev/braider-storefront/internal/storefront/infra/adapters/session"
	"github.com/jcmexdev/braider-storefront/internal/storefront/infra/httpx"
	"github.com/jcmexdev/braider-storefront/internal/submission"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog/sqlite"
)

const cacheNamespace = "storefront"

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
		if err != nil {
			slog.Error("failed to initialise tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	store, closeStore := newCache(ctx, cfg)
	defer closeStore()

	var (
		audit  submissionlog.Repository
		reader submissionlog.Reader
	)
	if cfg.SubmissionLogPath != "" {
		repo, err := sqlite.Open(cfg.SubmissionLogPath)
		if err != nil {
			slog.Error("failed to open submission log", "path", cfg.SubmissionLogPath, "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		audit, reader = repo, repo
		slog.Info("submission audit log enabled", "path", cfg.SubmissionLogPath)
	}

	collector := formcollector.NewClient(cfg.FormEndpoint, cfg.FormTimeout)
	dispatcher := submission.NewDispatcher(collector, audit)
	checkout := service.NewCheckout(
		session.NewDraftStore(store, cfg.SessionTTL),
		session.NewConfirmationStore(store, cfg.ConfirmationTTL),
		dispatcher,
	)

	handler, err := httpx.NewHandler(checkout, reader)
	if err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpx.NewRouter(handler, cfg.SessionTTL),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("storefront running", "addr", srv.Addr, "form_endpoint", cfg.FormEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server forced to shut down", "error", err)
	}
	// orders confirmed just before the signal still get their chance to reach the collector
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		slog.Warn("background submissions still in flight at exit", "error", err)
	}
	slog.Info("storefront exited")
}

// newCache returns Redis when REDIS_ADDR is set and the in-process cache
// otherwise. The returned func releases whatever was opened.
func newCache(ctx context.Context, cfg *Config) (cache.Cache, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis not reachable yet, drafts will fail until it is", "addr", cfg.RedisAddr, "error", err)
		}
		slog.Info("session store: redis", "addr", cfg.RedisAddr)
		return cache.NewRedisCache(client, cacheNamespace), func() { _ = client.Close() }
	}

	mem := cache.NewMemoryCache(cacheNamespace)
	sweepCtx, cancel := context.WithCancel(ctx)
	go mem.RunSweeper(sweepCtx, time.Minute)
	slog.Info("session store: in-process memory")
	return mem, cancel
}
