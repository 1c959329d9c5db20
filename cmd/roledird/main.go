package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/eappere/roledir/pkg/api"
	"github.com/eappere/roledir/pkg/config"
	"github.com/eappere/roledir/pkg/directory"
	"github.com/eappere/roledir/pkg/middleware"
	"github.com/eappere/roledir/pkg/observability"
	"github.com/eappere/roledir/pkg/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logrus.Fatalf("Failed to initialize tracing: %v", err)
	}

	metrics := observability.NewMetrics(nil)
	dirMetrics := directory.NewMetrics(metrics.Registry())

	st, err := store.Open(cfg.Store)
	if err != nil {
		logrus.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	logger.Infof("Store backend %s ready", cfg.Store.Backend)

	svc := directory.NewService(st, cfg.Directory.DefaultSuperuser, logger, dirMetrics)
	coord := directory.NewCoordinator(svc)

	// Single bootstrap worker. The coordinator never retries internally;
	// transient unavailability is rescheduled here with exponential backoff.
	go runBootstrap(ctx, coord, cfg.Directory, logger)

	router := mux.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Metrics(metrics),
	)
	api.NewHandlers(svc, coord).RegisterRoutes(router)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	go func() {
		logger.Infof("Role directory API listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()
	go func() {
		logger.Infof("Metrics listening on %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Metrics server failed: %v", err)
		}
	}()

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, metricsServer)
	sm.RegisterShutdownFunc(func(context.Context) error {
		cancel()
		coord.Stop()
		return nil
	})
	sm.RegisterShutdownFunc(func(context.Context) error {
		return st.Close()
	})
	if otelShutdown != nil {
		sm.RegisterShutdownFunc(otelShutdown)
	}

	if err := sm.WaitForShutdown(); err != nil {
		logrus.Fatalf("Shutdown failed: %v", err)
	}
}

// runBootstrap drives the coordinator under an exponential backoff schedule.
// Only transient unavailability is rescheduled; a cancelled run is a clean
// shutdown and anything else is terminal for the worker (the process keeps
// serving queries, which do not depend on bootstrap).
func runBootstrap(ctx context.Context, coord *directory.Coordinator, cfg config.DirectoryConfig, logger *observability.Logger) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.BootstrapInitialBackoff
	bo.MaxInterval = cfg.BootstrapMaxBackoff
	bo.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		err := coord.Run(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, context.Canceled):
			return backoff.Permanent(err)
		case errors.Is(err, store.ErrUnavailable):
			return err
		default:
			return backoff.Permanent(err)
		}
	}, backoff.WithContext(bo, ctx))

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Info("Bootstrap cancelled by shutdown")
	default:
		logger.WithError(err).Error("Bootstrap failed")
	}
}
