package store

import "time"

// Config for store backends
type Config struct {
	Backend string // "cassandra", "sqlite", "memory"

	// Cassandra config
	CassandraHosts          []string
	CassandraKeyspace       string
	CassandraUsername       string
	CassandraPassword       string
	CassandraTimeout        time.Duration
	CassandraConnectTimeout time.Duration

	// SQLite config
	SQLitePath string
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Backend:                 "memory",
		CassandraHosts:          []string{"127.0.0.1"},
		CassandraKeyspace:       "system_auth",
		CassandraTimeout:        10 * time.Second,
		CassandraConnectTimeout: 5 * time.Second,
		SQLitePath:              "roledir.db",
	}
}
