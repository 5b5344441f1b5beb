// Package config provides hierarchical configuration loading for the
// TaskForge dispatch service.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"time"

	"github.com/Strob0t/TaskForge/internal/ratelimit"
)

// Config holds all runtime configuration for the dispatch service.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Rate      Rate      `yaml:"rate"`
	Dispatch  Dispatch  `yaml:"dispatch"`
	Postgres  Postgres  `yaml:"postgres"`
	NATS      NATS      `yaml:"nats"`
	Cache     Cache     `yaml:"cache"`
	Breaker   Breaker   `yaml:"breaker"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Rate holds admission-control configuration.
type Rate struct {
	Limits            ratelimit.Config `yaml:"limits"`
	ProcessorInterval time.Duration    `yaml:"processor_interval"`
}

// Dispatch holds task routing and batch execution configuration.
type Dispatch struct {
	Strategy    string `yaml:"strategy"`     // "priority" | "load_balance"
	MaxParallel int    `yaml:"max_parallel"` // concurrent executions per parallel batch
}

// Postgres holds the optional execution-history store configuration.
// An empty DSN disables persistence.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// NATS holds the optional message mirror configuration.
// An empty URL disables mirroring.
type NATS struct {
	URL string `yaml:"url"`
}

// Cache holds the in-process response cache configuration.
type Cache struct {
	MaxSizeMB  int64         `yaml:"max_size_mb"`
	MetricsTTL time.Duration `yaml:"metrics_ttl"`
}

// Breaker holds circuit breaker configuration for queue publishes.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Telemetry holds the OTLP exporter configuration.
// An empty endpoint disables export.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns a Config with sensible default values for local
// development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "taskforge-dispatch",
		},
		Rate: Rate{
			Limits: ratelimit.Config{
				MaxRequestsPerHour:   1000,
				MaxRequestsPerMinute: 60,
				MaxConcurrent:        10,
			},
			ProcessorInterval: time.Second,
		},
		Dispatch: Dispatch{
			Strategy:    "priority",
			MaxParallel: 8,
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
		},
		Cache: Cache{
			MaxSizeMB:  16,
			MetricsTTL: 5 * time.Second,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
	}
}
