package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Slack.RateLimit)
	assert.Equal(t, 15*time.Minute, cfg.Cache.ChannelTTL.Std())
	assert.Equal(t, time.Hour, cfg.Cache.PrincipalTTL.Std())
	assert.Equal(t, 200, cfg.Engine.PageSize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadParsesDurationsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
slack:
  token: xoxb-file
  rate_limit: 20
cache:
  path: /tmp/loom-test.db
  channel_ttl: 5m
  principal_ttl: 2h
engine:
  max_pages: 3
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-file", cfg.Slack.Token)
	assert.Equal(t, 20, cfg.Slack.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ChannelTTL.Std())
	assert.Equal(t, 2*time.Hour, cfg.Cache.PrincipalTTL.Std())
	assert.Equal(t, 3, cfg.Engine.MaxPages)
	// Untouched keys keep their defaults.
	assert.Equal(t, 200, cfg.Engine.PageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "slack: [not a map")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, "cache:\n  channel_ttl: soonish\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "slack:\n  token: xoxb-file\n")
	t.Setenv("SLACK_TOKEN", "xoxb-env")
	t.Setenv("LOOM_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-env", cfg.Slack.Token)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.Slack.Token = ""
	require.Error(t, cfg.Validate())

	cfg.Slack.Token = "xoxb-test"
	cfg.Cache.Path = ""
	require.Error(t, cfg.Validate())

	cfg.Cache.Path = "/tmp/loom.db"
	require.NoError(t, cfg.Validate())
}
