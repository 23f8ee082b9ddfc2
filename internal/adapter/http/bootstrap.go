package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todolist/internal/adapter/http/routes"
	"todolist/internal/adapter/telemetry"
	"todolist/pkg/config"
)

// NewServer wires the container and the router into an http.Server.
func NewServer(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, metrics *telemetry.AppMetrics) (*http.Server, *Container, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := NewContainer(ctx, cfg, logger, metrics)

	if err != nil {
		return nil, nil, err
	}

	router := routes.SetupRouter(routes.HandlersConfig{
		AuthHandler: container.AuthHandler,
		TaskHandler: container.TaskHandler,
		Tokens:      container.Tokens,
	}, routes.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	return srv, container, nil
}

// StartServer serves until ctx is cancelled, then drains in-flight requests
// within the shutdown timeout and closes the store.
func StartServer(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, metrics *telemetry.AppMetrics) error {
	srv, container, err := NewServer(ctx, cfg, logger, metrics)

	if err != nil {
		return err
	}

	defer func() {
		if err := container.Close(); err != nil {
			logger.Error("Failed to close resources", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.HTTP.Port),
		zap.String("environment", cfg.App.Env),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("https_enforced", cfg.HTTP.EnforceHTTPS))

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.HTTP.ShutdownTimeout > 0 {
		return cfg.HTTP.ShutdownTimeout
	}

	return 10 * time.Second
}
