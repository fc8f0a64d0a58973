package config

import (
	"github.com/spf13/pflag"
)

// Flag names understood by RegisterFlags and ApplyFlags.
const (
	FlagConfig   = "config"
	FlagAPIURL   = "api-url"
	FlagState    = "state"
	FlagTimeout  = "timeout"
	FlagLogLevel = "log-level"
)

// RegisterFlags declares the configuration flags on fs. Defaults shown in
// help are the built-in ones; only flags the user actually sets override
// the loaded Config.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.StringP(FlagAPIURL, "a", d.APIBaseURL, "base URL of the promstudy API")
	fs.StringP(FlagState, "s", d.StatePath, "path to the local session database")
	fs.Duration(FlagTimeout, d.RequestTimeout, "HTTP request timeout")
	fs.String(FlagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
}

// ApplyFlags copies every changed flag from fs into cfg.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	if fs.Changed(FlagAPIURL) {
		v, err := fs.GetString(FlagAPIURL)
		if err != nil {
			return err
		}
		cfg.APIBaseURL = v
	}
	if fs.Changed(FlagState) {
		v, err := fs.GetString(FlagState)
		if err != nil {
			return err
		}
		cfg.StatePath = v
	}
	if fs.Changed(FlagTimeout) {
		v, err := fs.GetDuration(FlagTimeout)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = v
	}
	if fs.Changed(FlagLogLevel) {
		v, err := fs.GetString(FlagLogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = v
	}
	return cfg.Validate()
}

// FromFlags loads the JSON file named by --config, the environment and the
// changed flags, in that order.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyFlags(fs, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
