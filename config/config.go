package config

import (
	"fmt"
	"os"
	"time"

	"vertretungsplan-bot/dsb"
	"vertretungsplan-bot/types"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI needs to run the engine.
type Config struct {
	DSB       DSBConfig       `yaml:"dsb"`
	Emergency EmergencyConfig `yaml:"emergency"`
	Redis     RedisConfig     `yaml:"redis"`
	Match     MatchConfig     `yaml:"match"`
	Log       LogConfig       `yaml:"log"`
	Timezone  string          `yaml:"timezone"`
}

// DSBConfig configures account and endpoints
type DSBConfig struct {
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	LoginURL  string        `yaml:"login_url"`
	DataURLs  []string      `yaml:"data_urls"`
	AppURL    string        `yaml:"app_url"`
	Tries     int           `yaml:"tries"`
	Timeout   string        `yaml:"timeout"`
	IndexPath dsb.IndexPath `yaml:"index_path"`
}

// EmergencyConfig names where an emergency plan url may come from.
// URL wins over File; Redis is consulted when redis.addr is set.
type EmergencyConfig struct {
	URL  string `yaml:"url"`
	File string `yaml:"file"` // JSON object with an "emergency_url" key
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MatchConfig struct {
	Level int `yaml:"level"`
}

type LogConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		DSB: DSBConfig{
			LoginURL:  dsb.DefaultLoginURL,
			DataURLs:  append([]string(nil), dsb.DefaultDataURLs...),
			AppURL:    dsb.DefaultAppURL,
			Tries:     dsb.DefaultTries,
			Timeout:   "15s",
			IndexPath: dsb.DefaultIndexPath(),
		},
		Match:    MatchConfig{Level: 5},
		Log:      LogConfig{Level: "info"},
		Timezone: "Europe/Berlin",
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config YAML: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DSB_USERNAME"); v != "" {
		c.DSB.Username = v
	}
	if v := os.Getenv("DSB_PASSWORD"); v != "" {
		c.DSB.Password = v
	}
	if v := os.Getenv("DSB_EMERGENCY_URL"); v != "" {
		c.Emergency.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.DSB.Timeout); err != nil {
		return fmt.Errorf("dsb.timeout: %w", err)
	}
	if c.DSB.Tries < 1 {
		return fmt.Errorf("dsb.tries must be at least 1, got %d", c.DSB.Tries)
	}
	if c.DSB.IndexPath.Title == "" {
		return fmt.Errorf("dsb.index_path.menu_title must not be empty")
	}
	if c.Match.Level < 0 || c.Match.Level > 6 {
		return fmt.Errorf("match.level must be between 0 and 6, got %d", c.Match.Level)
	}
	return nil
}

// Credentials returns the configured DSB account
func (c *Config) Credentials() types.Credentials {
	return types.Credentials{Username: c.DSB.Username, Password: c.DSB.Password}
}

// TimeoutDuration returns DSB.Timeout; Validate has checked it parses
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DSB.Timeout)
	return d
}
