// Package config loads role directory service configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eappere/roledir/pkg/observability"
	"github.com/eappere/roledir/pkg/store"
)

// Config holds all service configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration
	Store store.Config

	// Directory configuration
	Directory DirectoryConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Metrics/health server (separate port for probes)
	MetricsPort string
}

// DirectoryConfig holds directory and bootstrap settings
type DirectoryConfig struct {
	// DefaultSuperuser is the reserved role name the bootstrap ensures.
	DefaultSuperuser string

	// Bootstrap retry backoff bounds for the external retry schedule.
	BootstrapInitialBackoff time.Duration
	BootstrapMaxBackoff     time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Directory:     loadDirectoryConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ROLEDIR_HOST", "0.0.0.0"),
		Port:            getEnv("ROLEDIR_PORT", "8080"),
		ReadTimeout:     getEnvDuration("ROLEDIR_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ROLEDIR_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ROLEDIR_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ROLEDIR_SHUTDOWN_TIMEOUT", 30*time.Second),
		MetricsPort:     getEnv("ROLEDIR_METRICS_PORT", "9090"),
	}
}

func loadStoreConfig() store.Config {
	cfg := store.DefaultConfig()

	if backend := getEnv("ROLEDIR_STORE_BACKEND", ""); backend != "" {
		cfg.Backend = backend
	}

	// Cassandra config
	if hosts := getEnv("ROLEDIR_CASSANDRA_HOSTS", ""); hosts != "" {
		cfg.CassandraHosts = splitAndTrim(hosts)
	}
	if keyspace := getEnv("ROLEDIR_CASSANDRA_KEYSPACE", ""); keyspace != "" {
		cfg.CassandraKeyspace = keyspace
	}
	if username := getEnv("ROLEDIR_CASSANDRA_USERNAME", ""); username != "" {
		cfg.CassandraUsername = username
	}
	if password := getEnv("ROLEDIR_CASSANDRA_PASSWORD", ""); password != "" {
		cfg.CassandraPassword = password
	}
	if timeout := getEnvDuration("ROLEDIR_CASSANDRA_TIMEOUT", 0); timeout > 0 {
		cfg.CassandraTimeout = timeout
	}
	if timeout := getEnvDuration("ROLEDIR_CASSANDRA_CONNECT_TIMEOUT", 0); timeout > 0 {
		cfg.CassandraConnectTimeout = timeout
	}

	// SQLite config
	if path := getEnv("ROLEDIR_SQLITE_PATH", ""); path != "" {
		cfg.SQLitePath = path
	}

	return cfg
}

func loadDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		DefaultSuperuser:        getEnv("ROLEDIR_DEFAULT_SUPERUSER", ""),
		BootstrapInitialBackoff: getEnvDuration("ROLEDIR_BOOTSTRAP_INITIAL_BACKOFF", 1*time.Second),
		BootstrapMaxBackoff:     getEnvDuration("ROLEDIR_BOOTSTRAP_MAX_BACKOFF", 1*time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("ROLEDIR_LOG_LEVEL", "info")),
		OTelEnabled:        getEnvBool("ROLEDIR_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("ROLEDIR_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("ROLEDIR_OTEL_SERVICE_NAME", "roledir"),
		OTelServiceVersion: getEnv("ROLEDIR_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("ROLEDIR_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.MetricsPort == "" {
		return fmt.Errorf("metrics port is required")
	}
	if c.Server.Port == c.Server.MetricsPort {
		return fmt.Errorf("server port and metrics port must be different")
	}

	switch c.Store.Backend {
	case "cassandra":
		if len(c.Store.CassandraHosts) == 0 {
			return fmt.Errorf("cassandra hosts are required for the cassandra backend")
		}
		if c.Store.CassandraKeyspace == "" {
			return fmt.Errorf("cassandra keyspace is required for the cassandra backend")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid store backend: %s (must be cassandra, sqlite, or memory)", c.Store.Backend)
	}

	if c.Directory.BootstrapInitialBackoff <= 0 || c.Directory.BootstrapMaxBackoff < c.Directory.BootstrapInitialBackoff {
		return fmt.Errorf("bootstrap backoff bounds are invalid")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv gets an environment variable with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets a duration environment variable with a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
