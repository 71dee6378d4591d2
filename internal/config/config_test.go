package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(524288000), cfg.Preview.Cache.MaxBytes)
	assert.Equal(t, 10, cfg.Preview.Cache.PredictorWindow)
	assert.Equal(t, 2, cfg.Preview.Cache.PrefetchWorkers)
	assert.Equal(t, "medium", cfg.Preview.Quality.Initial)
	assert.True(t, cfg.Preview.Quality.Adaptive)
	assert.Equal(t, time.Second, cfg.Preview.Scheduler.StatsInterval)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: text
preview:
  cache:
    max_bytes: 1048576
    prefetch_workers: 4
  quality:
    initial: high
    adaptive: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, int64(1048576), cfg.Preview.Cache.MaxBytes)
	assert.Equal(t, 4, cfg.Preview.Cache.PrefetchWorkers)
	assert.Equal(t, "high", cfg.Preview.Quality.Initial)
	assert.False(t, cfg.Preview.Quality.Adaptive)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero cache budget", func(c *Config) { c.Preview.Cache.MaxBytes = 0 }},
		{"negative cache budget", func(c *Config) { c.Preview.Cache.MaxBytes = -1 }},
		{"tiny predictor window", func(c *Config) { c.Preview.Cache.PredictorWindow = 1 }},
		{"negative workers", func(c *Config) { c.Preview.Cache.PrefetchWorkers = -1 }},
		{"bad quality", func(c *Config) { c.Preview.Quality.Initial = "turbo" }},
		{"alpha too high", func(c *Config) { c.Preview.Quality.Alpha = 1.0 }},
		{"zero max fps", func(c *Config) { c.Preview.Scheduler.MaxFPS = 0 }},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
