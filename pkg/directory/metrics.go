package directory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the directory's Prometheus collectors
type Metrics struct {
	OperationsTotal         *prometheus.CounterVec
	OperationDuration       *prometheus.HistogramVec
	BootstrapRunsTotal      *prometheus.CounterVec
	DefaultRoleCreatedTotal prometheus.Counter
}

// NewMetrics creates and registers the directory metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roledir_directory_operations_total",
				Help: "Total number of directory operations by result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roledir_directory_operation_duration_seconds",
				Help:    "Directory operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		BootstrapRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roledir_bootstrap_runs_total",
				Help: "Total number of bootstrap runs by result",
			},
			[]string{"result"},
		),
		DefaultRoleCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "roledir_default_role_created_total",
				Help: "Times this process inserted the default superuser role",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.OperationsTotal,
			m.OperationDuration,
			m.BootstrapRunsTotal,
			m.DefaultRoleCreatedTotal,
		)
	}

	return m
}

func (m *Metrics) observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) bootstrapRun(result string) {
	if m == nil {
		return
	}
	m.BootstrapRunsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) defaultRoleCreated() {
	if m == nil {
		return
	}
	m.DefaultRoleCreatedTotal.Inc()
}
