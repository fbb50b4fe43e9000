// Package config loads the YAML configuration file and applies environment
// overrides. A missing file yields the defaults; a malformed one is an
// error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Slack struct {
		Token   string `yaml:"token"`
		BaseURL string `yaml:"base_url"`
		// Requests per window for outbound pacing.
		RateLimit  int      `yaml:"rate_limit"`
		RateWindow Duration `yaml:"rate_window"`
	} `yaml:"slack"`

	Cache struct {
		Path           string   `yaml:"path"`
		ChannelTTL     Duration `yaml:"channel_ttl"`
		PrincipalTTL   Duration `yaml:"principal_ttl"`
		RefreshTimeout Duration `yaml:"refresh_timeout"`
	} `yaml:"cache"`

	Engine struct {
		PageSize         int      `yaml:"page_size"`
		MaxPages         int      `yaml:"max_pages"`
		Concurrency      int      `yaml:"concurrency"`
		OperationTimeout Duration `yaml:"operation_timeout"`
	} `yaml:"engine"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".loom", "config.yaml"), nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Slack.RateLimit = 45
	cfg.Slack.RateWindow = Duration(time.Minute)
	cfg.Cache.ChannelTTL = Duration(15 * time.Minute)
	cfg.Cache.PrincipalTTL = Duration(time.Hour)
	cfg.Cache.RefreshTimeout = Duration(2 * time.Minute)
	cfg.Engine.PageSize = 200
	cfg.Engine.MaxPages = 10
	cfg.Engine.Concurrency = 8
	cfg.Engine.OperationTimeout = Duration(3 * time.Minute)
	cfg.Log.Level = "info"

	if home, err := os.UserHomeDir(); err == nil {
		cfg.Cache.Path = filepath.Join(home, ".loom", "cache.db")
	} else {
		cfg.Cache.Path = "loom-cache.db"
	}
	return cfg
}

// Load reads path, falling back to defaults when the file does not exist,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SLACK_TOKEN"); v != "" {
		cfg.Slack.Token = v
	}
	if v := os.Getenv("SLACK_BASE_URL"); v != "" {
		cfg.Slack.BaseURL = v
	}
	if v := os.Getenv("LOOM_CACHE_DB"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("LOOM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Slack.Token == "" {
		return errors.New("slack token is required (config slack.token or SLACK_TOKEN)")
	}
	if c.Cache.Path == "" {
		return errors.New("cache path is required")
	}
	return nil
}
