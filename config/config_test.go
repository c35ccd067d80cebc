package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
listen: ":9090"
stations_path: "/data/stations.csv"
stats_source: "/data/stats.db"
timezone: "Asia/Taipei"
default_hour: 17
locale: "en"
reload_interval_minutes: 30
feed:
  url: "http://example.com/feed.json"
  timeout_seconds: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/data/stations.csv", cfg.StationsPath)
	assert.Equal(t, "/data/stats.db", cfg.StatsSource)
	assert.Equal(t, 17, cfg.DefaultHour)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 30, cfg.ReloadIntervalMinutes)
	assert.Equal(t, "http://example.com/feed.json", cfg.Feed.URL)
	assert.Equal(t, 3*time.Second, cfg.Feed.Timeout())
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"listen": ":7070", "default_hour": 9}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, 9, cfg.DefaultHour)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `listen: ":9090"`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "stations.csv", cfg.StationsPath)
	assert.Equal(t, "hourly_station_availability.csv", cfg.StatsSource)
	assert.Equal(t, "Asia/Taipei", cfg.Timezone)
	assert.Equal(t, 8, cfg.DefaultHour)
	assert.Equal(t, "zh-TW", cfg.Locale)
	assert.Equal(t, 0, cfg.ReloadIntervalMinutes)
	assert.NotEmpty(t, cfg.Feed.URL)
	assert.Equal(t, 5*time.Second, cfg.Feed.Timeout())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `listen: ":9090"`)

	t.Setenv("UB_LISTEN", ":6060")
	t.Setenv("UB_FEED__TIMEOUT_SECONDS", "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Listen)
	assert.Equal(t, 10*time.Second, cfg.Feed.Timeout())
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", `listen = ":9090"`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"hour too large", func(c *Config) { c.DefaultHour = 24 }, true},
		{"hour negative", func(c *Config) { c.DefaultHour = -1 }, true},
		{"zero timeout", func(c *Config) { c.Feed.TimeoutSeconds = 0 }, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"negative reload", func(c *Config) { c.ReloadIntervalMinutes = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Listen)
	assert.NoError(t, cfg.Validate())
	assert.NotNil(t, cfg.Location())
}
