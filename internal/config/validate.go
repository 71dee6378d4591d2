package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Preview.Validate(); err != nil {
		return fmt.Errorf("preview config: %w", err)
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("invalid log format: %s", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("log output is required")
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", m.Port)
	}

	if m.Path == "" {
		return fmt.Errorf("metrics path is required")
	}

	return nil
}

func (p *PreviewConfig) Validate() error {
	if err := p.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := p.Quality.Validate(); err != nil {
		return fmt.Errorf("quality config: %w", err)
	}

	if err := p.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler config: %w", err)
	}

	return nil
}

func (c *CacheConfig) Validate() error {
	if c.MaxBytes <= 0 {
		return fmt.Errorf("cache max_bytes must be positive, got %d", c.MaxBytes)
	}

	if c.PredictorWindow < 2 {
		return fmt.Errorf("predictor_window must be at least 2, got %d", c.PredictorWindow)
	}

	if c.PrefetchWorkers < 0 {
		return fmt.Errorf("prefetch_workers must be non-negative, got %d", c.PrefetchWorkers)
	}

	return nil
}

func (q *QualityConfig) Validate() error {
	switch q.Initial {
	case "low", "medium", "high", "ultra":
	default:
		return fmt.Errorf("invalid initial quality: %s", q.Initial)
	}

	if q.Alpha <= 0 || q.Alpha >= 1 {
		return fmt.Errorf("quality alpha must be in (0,1), got %v", q.Alpha)
	}

	return nil
}

func (s *SchedulerConfig) Validate() error {
	if s.MaxFPS <= 0 {
		return fmt.Errorf("max_fps must be positive, got %v", s.MaxFPS)
	}

	if s.StatsInterval <= 0 {
		return fmt.Errorf("stats_interval must be positive")
	}

	if s.ErrorBurst < 1 {
		return fmt.Errorf("error_burst must be at least 1, got %d", s.ErrorBurst)
	}

	if s.ErrorInterval <= 0 {
		return fmt.Errorf("error_interval must be positive")
	}

	return nil
}
