package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cliFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("factkeeper", pflag.ContinueOnError)
	fs.String("db-url", "", "")
	fs.String("data-dir", "", "")
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

// TestPrecedence checks defaults < file < environment < flags.
func TestPrecedence(t *testing.T) {
	path := writeConfig(t, `store:
  data_dir: /from/file
log:
  level: warn
  format: text
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := LoadConfig(path, cliFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "/from/file", cfg.Store.DataDir)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("environment over file", func(t *testing.T) {
		t.Setenv("FK_LOG_LEVEL", "error")

		cfg, err := LoadConfig(path, cliFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("flags over environment", func(t *testing.T) {
		t.Setenv("FK_LOG_LEVEL", "error")
		t.Setenv("FK_STORE_DATA_DIR", "/from/env")

		cfg, err := LoadConfig(path, cliFlags(t, "--log-level=debug", "--data-dir=/from/flag"))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "/from/flag", cfg.Store.DataDir)
	})

	t.Run("unset flags do not shadow lower layers", func(t *testing.T) {
		cfg, err := LoadConfig(path, cliFlags(t, "--log-format=json"))
		require.NoError(t, err)
		assert.Equal(t, "/from/file", cfg.Store.DataDir)
		assert.Equal(t, "json", cfg.Log.Format)
	})
}
