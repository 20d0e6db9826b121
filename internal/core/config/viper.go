package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/solatis/factkeeper/internal/core/logging"
)

// EnvPrefix prefixes every environment override, e.g. FK_SERVER_PORT.
const EnvPrefix = "FK"

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"db-url":     "store.db_url",
	"data-dir":   "store.data_dir",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence. flags may be
// nil; only flags the user actually set override lower layers.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.metrics_addr", def.Server.MetricsAddr)
	v.SetDefault("store.db_url", def.Store.DBURL)
	v.SetDefault("store.document_key", def.Store.DocumentKey)
	v.SetDefault("store.data_dir", def.Store.DataDir)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Bind environment variables with FK_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MetricsAddr:    v.GetString("server.metrics_addr"),
		},
		Store: StoreConfig{
			DBURL:       v.GetString("store.db_url"),
			DocumentKey: v.GetString("store.document_key"),
			DataDir:     v.GetString("store.data_dir"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, timeout, log format and that some store
// is configured.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	switch cfg.Log.Format {
	case logging.FormatJSON, logging.FormatText:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q", logging.FormatJSON, logging.FormatText, cfg.Log.Format)
	}
	if cfg.Store.DBURL == "" && cfg.Store.DataDir == "" {
		return fmt.Errorf("no store configured: set store.db_url or store.data_dir")
	}
	if cfg.Store.DBURL != "" && strings.TrimSpace(cfg.Store.DocumentKey) == "" {
		return fmt.Errorf("store.document_key must not be empty")
	}
	return nil
}
