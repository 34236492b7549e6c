package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ticker_go/internal/domain"
)

const (
	// DefaultUserAgent is sent with every provider request
	DefaultUserAgent = "ticker_go/1.0 (+https://github.com/ticker-go)"

	// envPrefix prefixes every environment override (e.g. TICKER_LOG_LEVEL)
	envPrefix = "TICKER_"
	// secretEnvPrefix prefixes secret overrides (e.g. TICKER_SECRET_CURRENTS)
	secretEnvPrefix = envPrefix + "SECRET_"
)

// Config holds process configuration. User-facing ticker settings live in
// the persisted state, not here.
// LoadConfig overrides sensitive values from the environment after parsing.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Currents struct {
			BaseURL  string `yaml:"base_url"`
			AuthMode string `yaml:"auth_mode"` // "query" or "header"
		} `yaml:"currents"`
		Finnhub struct {
			BaseURL      string `yaml:"base_url"`
			RateLimitRPM int    `yaml:"rate_limit_rpm"`
			Concurrency  int    `yaml:"concurrency"`
		} `yaml:"finnhub"`
		TimeoutSec int `yaml:"timeout_sec"`
	} `yaml:"api"`

	// Secrets maps secret names (referenced from settings) to values.
	Secrets map[string]string `yaml:"secrets"`

	Storage struct {
		Path string `yaml:"path"` // empty: user config dir
	} `yaml:"storage"`

	Icons struct {
		URLTemplate string `yaml:"url_template"` // %s is replaced by the domain
		Dir         string `yaml:"dir"`
		Workers     int    `yaml:"workers"`
	} `yaml:"icons"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	// Poll intervals for long-running modes. Zero disables polling.
	Poll struct {
		NewsSec  int `yaml:"news_sec"`
		StockSec int `yaml:"stock_sec"`
	} `yaml:"poll"`

	UI struct {
		ReducedMotion bool `yaml:"reduced_motion"`
		FrameMS       int  `yaml:"frame_ms"`
	} `yaml:"ui"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration usable without a file.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "ticker_go"
	cfg.App.Version = "1.0.0"
	cfg.API.Currents.BaseURL = "https://api.currentsapi.services/v1"
	cfg.API.Currents.AuthMode = "query"
	cfg.API.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	cfg.API.Finnhub.RateLimitRPM = 60
	cfg.API.Finnhub.Concurrency = 4
	cfg.API.TimeoutSec = 10
	cfg.Secrets = map[string]string{}
	cfg.Icons.URLTemplate = "https://www.google.com/s2/favicons?domain=%s&sz=32"
	cfg.Icons.Dir = "icons"
	cfg.Icons.Workers = 4
	cfg.Server.Addr = "127.0.0.1:8787"
	cfg.Poll.NewsSec = 900
	cfg.Poll.StockSec = 60
	cfg.UI.FrameMS = 50
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig reads the YAML file at path over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Secrets == nil {
		cfg.Secrets = map[string]string{}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadConfigOrDefault falls back to DefaultConfig when path does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, domain.ErrConfigNotFound) {
		cfg = DefaultConfig()
		overrideWithEnv(cfg)
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !isHTTPURL(c.API.Currents.BaseURL) {
		return &domain.ConfigError{Field: "api.currents.base_url", Err: fmt.Errorf("invalid URL %q", c.API.Currents.BaseURL)}
	}
	if !isHTTPURL(c.API.Finnhub.BaseURL) {
		return &domain.ConfigError{Field: "api.finnhub.base_url", Err: fmt.Errorf("invalid URL %q", c.API.Finnhub.BaseURL)}
	}
	switch c.API.Currents.AuthMode {
	case "query", "header":
	default:
		return &domain.ConfigError{Field: "api.currents.auth_mode", Err: fmt.Errorf("must be query or header, got %q", c.API.Currents.AuthMode)}
	}
	if c.API.Finnhub.RateLimitRPM < 0 {
		return &domain.ConfigError{Field: "api.finnhub.rate_limit_rpm", Err: errors.New("must not be negative")}
	}
	if c.API.Finnhub.Concurrency <= 0 {
		return &domain.ConfigError{Field: "api.finnhub.concurrency", Err: errors.New("must be positive")}
	}
	if c.API.TimeoutSec <= 0 {
		return &domain.ConfigError{Field: "api.timeout_sec", Err: errors.New("must be positive")}
	}
	if c.Poll.NewsSec < 0 || c.Poll.StockSec < 0 {
		return &domain.ConfigError{Field: "poll", Err: errors.New("intervals must not be negative")}
	}
	if c.UI.FrameMS <= 0 {
		return &domain.ConfigError{Field: "ui.frame_ms", Err: errors.New("must be positive")}
	}
	if c.Icons.URLTemplate != "" && !strings.Contains(c.Icons.URLTemplate, "%s") {
		return &domain.ConfigError{Field: "icons.url_template", Err: errors.New("must contain %s")}
	}
	return nil
}

// Timeout is the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// PollIntervals returns the news and stock poll intervals.
func (c *Config) PollIntervals() (news, stock time.Duration) {
	return time.Duration(c.Poll.NewsSec) * time.Second, time.Duration(c.Poll.StockSec) * time.Second
}

// FrameInterval is the terminal redraw interval.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.UI.FrameMS) * time.Millisecond
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// overrideWithEnv overwrites values with environment variables when set.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv(envPrefix + "CURRENTS_BASE_URL"); v != "" {
		cfg.API.Currents.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "CURRENTS_AUTH_MODE"); v != "" {
		cfg.API.Currents.AuthMode = v
	}
	if v := os.Getenv(envPrefix + "FINNHUB_BASE_URL"); v != "" {
		cfg.API.Finnhub.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "FINNHUB_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Finnhub.RateLimitRPM = n
		}
	}
	if v := os.Getenv(envPrefix + "STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(envPrefix + "SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "REDUCED_MOTION"); v != "" {
		cfg.UI.ReducedMotion, _ = strconv.ParseBool(v)
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, secretEnvPrefix) || value == "" {
			continue
		}
		secret := strings.ToLower(strings.TrimPrefix(name, secretEnvPrefix))
		cfg.Secrets[secret] = value
	}
}
