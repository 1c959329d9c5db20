// Package observability provides structured logging, Prometheus metrics,
// optional OpenTelemetry tracing, and graceful-shutdown plumbing for the
// role directory service.
//
// # Logging
//
// Logger wraps stdlib slog with a JSON handler. Request-scoped entries carry
// the request ID stored on the context by the middleware chain:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithRequestIDFrom(ctx).Info("request handled")
//
// # Metrics
//
// NewMetrics registers HTTP metrics on a prometheus.Registry; packages with
// their own collectors (pkg/directory) register on the same registry.
//
// # Tracing
//
// InitTracing wires a global OTLP/gRPC tracer provider when enabled. The
// store backends start spans per statement through the global tracer.
package observability
