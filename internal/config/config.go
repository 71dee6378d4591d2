package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Preview PreviewConfig `mapstructure:"preview"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`   // json or text
	Output     string `mapstructure:"output"`   // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type PreviewConfig struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Filters   FiltersConfig   `mapstructure:"filters"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type CacheConfig struct {
	MaxBytes        int64 `mapstructure:"max_bytes"`        // Frame cache budget in bytes
	PredictorWindow int   `mapstructure:"predictor_window"` // Recent accesses tracked for stride prediction
	PrefetchWorkers int   `mapstructure:"prefetch_workers"` // Bounded decode pool for predicted frames
}

type FiltersConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type QualityConfig struct {
	Initial  string  `mapstructure:"initial"` // low, medium, high, ultra
	Adaptive bool    `mapstructure:"adaptive"`
	Alpha    float64 `mapstructure:"alpha"` // EMA smoothing factor for processing time
}

type SchedulerConfig struct {
	MaxFPS        float64       `mapstructure:"max_fps"`        // Upper bound accepted at Load
	StatsInterval time.Duration `mapstructure:"stats_interval"` // Snapshot cadence
	ErrorBurst    int           `mapstructure:"error_burst"`    // on_error callbacks allowed per error_interval
	ErrorInterval time.Duration `mapstructure:"error_interval"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("GLIMPSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		// Defaults are static and always unmarshal cleanly.
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &cfg
}

func setDefaults() {
	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age", 30)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	// Cache defaults
	viper.SetDefault("preview.cache.max_bytes", 524288000) // 500MB
	viper.SetDefault("preview.cache.predictor_window", 10)
	viper.SetDefault("preview.cache.prefetch_workers", 2)

	// Filter defaults
	viper.SetDefault("preview.filters.enabled", true)

	// Quality defaults
	viper.SetDefault("preview.quality.initial", "medium")
	viper.SetDefault("preview.quality.adaptive", true)
	viper.SetDefault("preview.quality.alpha", 0.1)

	// Scheduler defaults
	viper.SetDefault("preview.scheduler.max_fps", 240)
	viper.SetDefault("preview.scheduler.stats_interval", "1s")
	viper.SetDefault("preview.scheduler.error_burst", 1)
	viper.SetDefault("preview.scheduler.error_interval", "5s")
}
