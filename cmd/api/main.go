package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront/internal/app"
	"storefront/internal/backend"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/logger"
	"storefront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput}).Named("api")
	defer func() { _ = log.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.String("driver", cfg.Storage), zap.Error(err))
	}
	defer st.Close()
	go st.PurgeLoop(ctx, cfg.StateRetention, time.Hour, log)

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, log)
	sessions := session.NewRegistry(st, client, session.Options{
		TTL:           cfg.SessionTTL,
		RevertDelay:   cfg.RevertDelay,
		SubmitTimeout: cfg.SubmitTimeout,
		Logger:        log,
	})
	defer sessions.Close()

	srv, err := httpserver.New(cfg.HTTPAddr, log, httpserver.Deps{
		Sessions:    sessions,
		Catalog:     catalog.New(client, cfg.CatalogTTL, log),
		Storage:     st,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   rate.Limit(cfg.RateLimitPerSec),
		RateBurst:   cfg.RateLimitBurst,
		SessionTTL:  cfg.SessionTTL,
	})
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting http server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.Storage),
			zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
}
