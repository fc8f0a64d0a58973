package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the promstudy CLI.
//
// Fields:
//   - APIBaseURL: base URL of the promstudy REST backend.
//   - StatePath: SQLite file holding the persisted session.
//   - RequestTimeout: per-request HTTP timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL     string        `env:"PROMSTUDY_API_URL"`
	StatePath      string        `env:"PROMSTUDY_STATE_PATH"`
	RequestTimeout time.Duration `env:"PROMSTUDY_REQUEST_TIMEOUT"`
	LogLevel       string        `env:"PROMSTUDY_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000"
	c.StatePath = "promstudy.db"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// Load constructs a Config, applies defaults, then overlays values from the
// JSON file at jsonPath (skipped when empty) and from the environment. Later
// sources take precedence; command-line flags are applied on top by
// ApplyFlags.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.APIBaseURL == "":
		return fmt.Errorf("config: api url must not be empty")
	case c.StatePath == "":
		return fmt.Errorf("config: state path must not be empty")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("config: request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
