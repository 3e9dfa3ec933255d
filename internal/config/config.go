// Package config loads optional itmdump defaults from a TOML file.
// Command line flags override anything set here.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"itmdump/common"
)

// Config holds the settings an itmdump config file may provide.
type Config struct {
	Stimulus      uint8
	Follow        bool
	RetryInterval time.Duration
	LogLevel      string
	MetricsAddr   string
}

// fileConfig is the raw TOML shape. Durations are Go duration strings.
type fileConfig struct {
	Stimulus      *int   `toml:"stimulus"`
	Follow        *bool  `toml:"follow"`
	RetryInterval string `toml:"retry_interval"`
	LogLevel      string `toml:"log_level"`
	MetricsAddr   string `toml:"metrics_addr"`
}

// Default returns the built-in defaults: stimulus port 0, no follow,
// 100ms retry interval, info logging, metrics disabled.
func Default() Config {
	return Config{
		Stimulus:      0,
		RetryInterval: 100 * time.Millisecond,
		LogLevel:      "info",
	}
}

// Load reads path and applies it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if raw.Stimulus != nil {
		if *raw.Stimulus < 0 || *raw.Stimulus > 255 {
			return Config{}, fmt.Errorf("config %q: stimulus port %d out of range 0-255", path, *raw.Stimulus)
		}
		cfg.Stimulus = uint8(*raw.Stimulus)
	}
	if raw.Follow != nil {
		cfg.Follow = *raw.Follow
	}
	if raw.RetryInterval != "" {
		d, err := time.ParseDuration(raw.RetryInterval)
		if err != nil {
			return Config{}, fmt.Errorf("config %q: retry_interval: %w", path, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("config %q: retry_interval must be positive, got %s", path, d)
		}
		cfg.RetryInterval = d
	}
	if raw.LogLevel != "" {
		if _, err := common.ParseSeverity(raw.LogLevel); err != nil {
			return Config{}, fmt.Errorf("config %q: %w", path, err)
		}
		cfg.LogLevel = raw.LogLevel
	}
	if raw.MetricsAddr != "" {
		cfg.MetricsAddr = raw.MetricsAddr
	}

	return cfg, nil
}
