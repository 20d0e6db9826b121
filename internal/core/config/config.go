// Package config provides configuration management for FactKeeper.
package config

import (
	"time"

	"github.com/solatis/factkeeper/internal/core/db"
	"github.com/solatis/factkeeper/internal/core/logging"
)

// Config is the fully resolved FactKeeper configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig
}

// ServerConfig holds configuration for the gRPC engine API.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	// MetricsAddr enables the Prometheus /metrics listener when non-empty.
	MetricsAddr string
}

// StoreConfig selects where the workspace document lives. DBURL wins over
// DataDir when both are set.
type StoreConfig struct {
	DBURL       string
	DocumentKey string
	DataDir     string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// UsesDatabase reports whether the document is kept in a SQL database.
func (s StoreConfig) UsesDatabase() bool {
	return s.DBURL != ""
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			RequestTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			DocumentKey: db.DefaultDocumentKey,
			DataDir:     "./data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}
