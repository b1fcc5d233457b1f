// Package config loads server and kernel sizing configuration from the
// environment, with optional TOML file overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Kernel    KernelConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" toml:"host"`
}

// KernelConfig sizes the coordination core.
type KernelConfig struct {
	CPUs             int           `envconfig:"KERNEL_CPUS" default:"4" toml:"cpus"`
	QueueCapacity    int           `envconfig:"KERNEL_QUEUE_CAPACITY" default:"256" toml:"queue_capacity"`
	MaxChannels      int           `envconfig:"KERNEL_MAX_CHANNELS" default:"1024" toml:"max_channels"`
	RingSize         int           `envconfig:"KERNEL_RING_SIZE" default:"16" toml:"ring_size"`
	MaxProcesses     int           `envconfig:"KERNEL_MAX_PROCESSES" default:"1024" toml:"max_processes"`
	TokensPerProcess int           `envconfig:"KERNEL_TOKENS_PER_PROCESS" default:"64" toml:"tokens_per_process"`
	AuditCapacity    int           `envconfig:"KERNEL_AUDIT_CAPACITY" default:"4096" toml:"audit_capacity"`
	// TickInterval in TOML is integer nanoseconds; the env var accepts
	// Go duration strings like "10ms".
	TickInterval     time.Duration `envconfig:"KERNEL_TICK_INTERVAL" default:"10ms" toml:"tick_interval"`
	TickerEnabled    bool          `envconfig:"KERNEL_TICKER_ENABLED" default:"true" toml:"ticker_enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// Load loads configuration from environment variables. When
// NUCLEUS_CONFIG names a TOML file, its values override the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("NUCLEUS_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads configuration from a TOML file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := applyFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file struct {
		Server    *ServerConfig    `toml:"server"`
		Kernel    *KernelConfig    `toml:"kernel"`
		Logging   *LogConfig       `toml:"logging"`
		RateLimit *RateLimitConfig `toml:"rate_limit"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if file.Server != nil {
		cfg.Server = *file.Server
	}
	if file.Kernel != nil {
		cfg.Kernel = *file.Kernel
	}
	if file.Logging != nil {
		cfg.Logging = *file.Logging
	}
	if file.RateLimit != nil {
		cfg.RateLimit = *file.RateLimit
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Kernel: KernelConfig{
			CPUs:             4,
			QueueCapacity:    256,
			MaxChannels:      1024,
			RingSize:         16,
			MaxProcesses:     1024,
			TokensPerProcess: 64,
			AuditCapacity:    4096,
			TickInterval:     10 * time.Millisecond,
			TickerEnabled:    true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
