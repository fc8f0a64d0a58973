package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/promstudy/promstudy/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "10s" or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_url"`
	StatePath      string         `json:"state_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays cfg with the values present in the JSON file at path.
// Keys missing from the file keep their current value. An empty path is a
// no-op.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.StatePath != "" {
		cfg.StatePath = jc.StatePath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
