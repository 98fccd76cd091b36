package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// currentUserAgent is protected by a mutex so embedding tools can override it.
	uaMu             sync.RWMutex
	currentUserAgent = GetPlatformUserAgent()
)

// GetUserAgent returns the current active User-Agent string. (Thread-safe)
func GetUserAgent() string {
	uaMu.RLock()
	defer uaMu.RUnlock()
	return currentUserAgent
}

// SetUserAgent updates the global User-Agent string. (Thread-safe)
func SetUserAgent(ua string) {
	uaMu.Lock()
	defer uaMu.Unlock()
	currentUserAgent = ua
}

// GetPlatformUserAgent identifies the admin client and the host platform.
func GetPlatformUserAgent() string {
	return fmt.Sprintf("coinoswap-admin/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Version is overridden at link time.
var Version = "dev"

// Config holds every setting of the admin client.
// LoadConfig reads it from YAML and then applies environment overrides.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		BaseURL       string `yaml:"base_url"`
		SessionCookie string `yaml:"session_cookie"`
		CookieName    string `yaml:"cookie_name"`
		TimeoutSec    int    `yaml:"timeout_sec"`
		MaxRetries    int    `yaml:"max_retries"`

		RateLimit struct {
			Burst     int     `yaml:"burst"`
			PerSecond float64 `yaml:"per_second"`
		} `yaml:"rate_limit"`

		Breaker struct {
			FailureThreshold int `yaml:"failure_threshold"`
			SuccessThreshold int `yaml:"success_threshold"`
			TimeoutSec       int `yaml:"timeout_sec"`
		} `yaml:"breaker"`
	} `yaml:"api"`

	Catalog struct {
		PageSize   int `yaml:"page_size"`
		FetchLimit int `yaml:"fetch_limit"`
		DebounceMS int `yaml:"debounce_ms"`
	} `yaml:"catalog"`

	Storage struct {
		Enabled   bool `yaml:"enabled"`
		Snapshots bool `yaml:"snapshots"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" or "json"
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = AppName
	cfg.App.Version = Version
	cfg.API.BaseURL = "http://localhost:5001/api"
	cfg.API.CookieName = "connect.sid"
	cfg.API.TimeoutSec = 10
	cfg.API.MaxRetries = 2
	cfg.API.RateLimit.Burst = 10
	cfg.API.RateLimit.PerSecond = 20
	cfg.API.Breaker.FailureThreshold = 5
	cfg.API.Breaker.SuccessThreshold = 2
	cfg.API.Breaker.TimeoutSec = 30
	cfg.Catalog.PageSize = 10
	cfg.Catalog.FetchLimit = 1000
	cfg.Catalog.DebounceMS = 300
	cfg.Storage.Enabled = true
	cfg.Storage.Snapshots = true
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return &cfg
}

// LoadConfig reads and validates the configuration file.
// A missing file is not an error: defaults plus environment overrides are used.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Config file not found, using defaults", slog.String("path", path))
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}
	if c.API.TimeoutSec <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api max_retries must not be negative")
	}
	if c.API.RateLimit.Burst <= 0 || c.API.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("rate limit burst and per_second must be positive")
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.Catalog.FetchLimit <= 0 {
		return fmt.Errorf("fetch limit must be positive")
	}
	if c.Catalog.DebounceMS < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// RequestTimeout is the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// Debounce is the search-input quiescence delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Catalog.DebounceMS) * time.Millisecond
}

// overrideWithEnv applies environment variables over file values.
// A .env file in the working directory is loaded first; real environment wins.
func overrideWithEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.Any("error", err))
	}

	if cfg.API.SessionCookie != "" {
		slog.Warn("Session cookie found in config file; prefer COINOSWAP_SESSION")
	}

	if url := os.Getenv("COINOSWAP_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if session := os.Getenv("COINOSWAP_SESSION"); session != "" {
		cfg.API.SessionCookie = session
	}
	if level := os.Getenv("COINOSWAP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
}
