package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the process configuration. Sources are loaded once at
// startup and held read-only; a reload interval may be set to refresh
// the historical aggregates via an explicit reload, never by mutation.
type Config struct {
	// Listen is the HTTP listen address for the query surface.
	Listen string `json:"listen"`
	// StationsPath is the station metadata export (fixed column order,
	// leading ordinal column discarded).
	StationsPath string `json:"stations_path"`
	// StatsSource is the hourly aggregates table: a CSV file, or a
	// sqlite database when the extension is .db/.sqlite/.sqlite3.
	StatsSource string `json:"stats_source"`
	// Timezone anchors both the live feed and the historical averages.
	Timezone string `json:"timezone"`
	// DefaultHour is the hour of day used when a query omits one.
	DefaultHour int `json:"default_hour"`
	// Locale selects the built-in label set for display records.
	Locale string `json:"locale"`
	// ReloadIntervalMinutes refreshes the historical aggregates
	// periodically when greater than zero.
	ReloadIntervalMinutes int `json:"reload_interval_minutes"`

	Feed FeedConfig `json:"feed"`
}

// FeedConfig configures the live snapshot adapter.
type FeedConfig struct {
	// URL returns the full current-moment snapshot as a JSON array.
	URL string `json:"url"`
	// TimeoutSeconds bounds a single fetch. No retries are built in.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout returns the fetch timeout as a duration.
func (c FeedConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.StationsPath == "" {
		c.StationsPath = "stations.csv"
	}
	if c.StatsSource == "" {
		c.StatsSource = "hourly_station_availability.csv"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Taipei"
	}
	if c.DefaultHour == 0 {
		c.DefaultHour = 8
	}
	if c.Locale == "" {
		c.Locale = "zh-TW"
	}
	if c.Feed.URL == "" {
		c.Feed.URL = "https://tcgbusfs.blob.core.windows.net/dotapp/youbike/v2/youbike_immediate.json"
	}
	if c.Feed.TimeoutSeconds == 0 {
		c.Feed.TimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.DefaultHour < 0 || c.DefaultHour > 23 {
		return fmt.Errorf("default_hour %d out of range [0,23]", c.DefaultHour)
	}
	if c.Feed.TimeoutSeconds <= 0 {
		return fmt.Errorf("feed timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.ReloadIntervalMinutes < 0 {
		return fmt.Errorf("reload interval must not be negative")
	}
	return nil
}

// Location resolves the configured time zone. Validate must have passed.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads the configuration file (yaml or json by extension) and
// applies UB_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("UB_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ub_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with all defaults applied, for use
// when no config file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}
