// Package config loads the Stagehand server configuration from an optional
// YAML file with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/lcroft/stagehand/pkg/domain"
)

// ThrottleLimits caps automation-rule firings per sliding window.
type ThrottleLimits struct {
	PerHour int `yaml:"per_hour" env:"STAGEHAND_THROTTLE_PER_HOUR"`
	PerDay  int `yaml:"per_day" env:"STAGEHAND_THROTTLE_PER_DAY"`
}

// Limit returns the configured cap for a window, zero meaning unlimited.
func (t ThrottleLimits) Limit(w domain.ThrottleWindow) int {
	switch w {
	case domain.WindowHour:
		return t.PerHour
	case domain.WindowDay:
		return t.PerDay
	}
	return 0
}

// Config is the full server configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr" env:"STAGEHAND_LISTEN_ADDR"`
	DBPath     string `yaml:"db_path" env:"STAGEHAND_DB_PATH"`

	// RedisAddr switches dedupe/throttle/locking to Redis when set;
	// empty keeps everything on SQLite.
	RedisAddr     string `yaml:"redis_addr" env:"STAGEHAND_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"STAGEHAND_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"STAGEHAND_REDIS_DB"`

	DedupeRetention time.Duration  `yaml:"dedupe_retention" env:"STAGEHAND_DEDUPE_RETENTION"`
	Throttle        ThrottleLimits `yaml:"throttle"`

	LogJSON bool `yaml:"log_json" env:"STAGEHAND_LOG_JSON"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		DBPath:          "stagehand.db",
		DedupeRetention: 7 * 24 * time.Hour,
		Throttle:        ThrottleLimits{PerHour: 60, PerDay: 500},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
