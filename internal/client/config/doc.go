// Package config loads runtime configuration for the promstudy CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected with -c / --config.
//  3. PROMSTUDY_* environment variables (see parseEnv).
//  4. Command-line flags that were explicitly set (see ApplyFlags).
//
// Supported flags
//
//	-c, --config string      JSON config file
//	-a, --api-url string     base URL of the REST backend
//	-s, --state string       SQLite file holding the session
//	    --timeout duration   HTTP request timeout
//	    --log-level string   debug, info, warn or error
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be a string
// like "10s" or integer nanoseconds:
//
//	{
//	  "api_url": "http://localhost:8000",
//	  "state_path": "promstudy.db",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
package config
