package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kaslot/internal/backend"
	"kaslot/internal/cli"
	apphttp "kaslot/internal/http"
	applog "kaslot/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Backend:        result.Backend,
		BackendName:    cfg.DataBackend,
		Logger:         logger,
		PublicBaseURL:  cfg.PublicBaseURL,
		RateLimit:      cfg.RateLimit,
		TrustedProxies: cfg.TrustedProxies,
		LoadTimeout:    cfg.APITimeout,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting kaslot server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
