// Package config loads and validates client configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Suggest, Breaker, Logging, Metrics, Tracing).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Stale request policies for the suggestion controller.
const (
	StaleCancel   = "cancel"
	StalePreserve = "preserve"
)

// Config is the top-level client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Suggest SuggestConfig `yaml:"suggest"`
	Breaker BreakerConfig `yaml:"breaker"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig points the client at the corpus website.
type ServerConfig struct {
	BaseURL        string        `yaml:"baseURL"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	UserAgent      string        `yaml:"userAgent"`
}

// SuggestConfig controls the typeahead controller: debounce interval,
// placeholder texts and what happens to superseded requests.
type SuggestConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	LoadingText   string        `yaml:"loadingText"`
	ErrorText     string        `yaml:"errorText"`
	DefaultText   string        `yaml:"defaultText"`
	StaleRequests string        `yaml:"staleRequests"`
}

// BreakerConfig controls the circuit breakers on the fragment endpoints.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles span logging for keystroke cycles.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config: server.baseURL is required")
	}
	if c.Suggest.Debounce <= 0 {
		return fmt.Errorf("config: suggest.debounce must be positive, got %v", c.Suggest.Debounce)
	}
	switch c.Suggest.StaleRequests {
	case StaleCancel, StalePreserve:
	default:
		return fmt.Errorf("config: suggest.staleRequests must be %q or %q, got %q",
			StaleCancel, StalePreserve, c.Suggest.StaleRequests)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:5000",
			RequestTimeout: 10 * time.Second,
			UserAgent:      "corpusctl",
		},
		Suggest: SuggestConfig{
			Debounce:      500 * time.Millisecond,
			LoadingText:   "Loading options...",
			ErrorText:     "Couldn't load suggestions.",
			DefaultText:   "Suche",
			StaleRequests: StaleCancel,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads CB_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CB_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("CB_SERVER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("CB_SUGGEST_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Suggest.Debounce = d
		}
	}
	if v := os.Getenv("CB_SUGGEST_STALE_REQUESTS"); v != "" {
		cfg.Suggest.StaleRequests = v
	}
	if v := os.Getenv("CB_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CB_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CB_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("CB_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("CB_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = b
		}
	}
}
