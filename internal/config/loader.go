package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/TaskForge/internal/routing"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "taskforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TASKFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "TASKFORGE_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "TASKFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TASKFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TASKFORGE_LOG_ASYNC")
	setInt(&cfg.Rate.Limits.MaxRequestsPerHour, "TASKFORGE_RATE_MAX_PER_HOUR")
	setInt(&cfg.Rate.Limits.MaxRequestsPerMinute, "TASKFORGE_RATE_MAX_PER_MINUTE")
	setInt(&cfg.Rate.Limits.MaxConcurrent, "TASKFORGE_RATE_MAX_CONCURRENT")
	setDuration(&cfg.Rate.ProcessorInterval, "TASKFORGE_RATE_PROCESSOR_INTERVAL")
	setString(&cfg.Dispatch.Strategy, "TASKFORGE_DISPATCH_STRATEGY")
	setInt(&cfg.Dispatch.MaxParallel, "TASKFORGE_DISPATCH_MAX_PARALLEL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TASKFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TASKFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TASKFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TASKFORGE_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "TASKFORGE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.MetricsTTL, "TASKFORGE_CACHE_METRICS_TTL")
	setInt(&cfg.Breaker.MaxFailures, "TASKFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TASKFORGE_BREAKER_TIMEOUT")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if _, err := routing.New(cfg.Dispatch.Strategy); err != nil {
		return fmt.Errorf("dispatch.strategy: %w", err)
	}
	if cfg.Rate.Limits.MaxRequestsPerHour < 1 {
		return errors.New("rate.limits.max_requests_per_hour must be >= 1")
	}
	if cfg.Rate.Limits.MaxRequestsPerMinute < 1 {
		return errors.New("rate.limits.max_requests_per_minute must be >= 1")
	}
	if cfg.Rate.Limits.MaxConcurrent < 1 {
		return errors.New("rate.limits.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
