package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen: ":9090"
  timeout: 45s
database:
  dsn: "file:custom.db?mode=rwc"
schedule:
  refresh_interval: 15m
  max_workers: 3
fetch:
  timeout: 10s
  user_agent: "custom-agent/1.0"
retention:
  item_limit: 100
  max_age_days: 14
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "file:custom.db?mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, 3, cfg.Schedule.MaxWorkers)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "custom-agent/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, 100, cfg.Retention.ItemLimit)
	assert.Equal(t, 14, cfg.Retention.MaxAgeDays)
	assert.Equal(t, 14*24*time.Hour, cfg.MaxItemAge())
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// everything not set falls back to defaults
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, 12*time.Hour, cfg.Schedule.CleanupInterval)
	assert.Equal(t, 10*time.Second, cfg.Schedule.HeartbeatInterval)
	assert.Equal(t, 5, cfg.Schedule.MaxWorkers)
	assert.Equal(t, 200, cfg.Retention.ItemLimit)
	assert.Equal(t, 30, cfg.Retention.MaxAgeDays)
	assert.Contains(t, cfg.Fetch.UserAgent, "feedshed")
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("FEEDSHED_DB", "file:/var/lib/feedshed/data.db?mode=rwc")
	path := writeConfigFile(t, `
database:
  dsn: "${FEEDSHED_DB}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file:/var/lib/feedshed/data.db?mode=rwc", cfg.Database.DSN)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeConfigFile(t, "server: [not a mapping")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			errMsg  string
		}{
			{"short refresh interval", "schedule:\n  refresh_interval: 10s\n", "refresh_interval"},
			{"negative workers", "schedule:\n  max_workers: -1\n", "max_workers"},
			{"short fetch timeout", "fetch:\n  timeout: 100ms\n", "fetch.timeout"},
			{"negative item limit", "retention:\n  item_limit: -5\n", "item_limit"},
			{"negative max age", "retention:\n  max_age_days: -1\n", "max_age_days"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Load(writeConfigFile(t, tt.content))
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			})
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 200, cfg.Retention.ItemLimit)

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":8080", listen)
	assert.Equal(t, 30*time.Second, timeout)
}
