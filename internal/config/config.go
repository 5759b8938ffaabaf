package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL       = "https://api.openaq.org/v3"
	defaultPageSize      = 100
	defaultRequestDelay  = time.Second
	defaultRetryDelay    = 5 * time.Second
	defaultMaxAttempts   = 4
	defaultFetchInterval = time.Hour
	defaultHTTPTimeout   = 30 * time.Second
	defaultAPIPort       = 8080
)

// Config holds runtime configuration for the watcher and API services.
type Config struct {
	DatabaseURL string
	BaseURL     string
	APIKey      string

	PageSize     int
	RequestDelay time.Duration
	RetryDelay   time.Duration
	MaxAttempts  int
	HTTPTimeout  time.Duration

	MaxLocations  int
	FetchInterval time.Duration

	Port        int
	BearerToken string

	LogLevel  string
	LogFormat string
	DryRun    bool
}

// Load reads configuration from environment variables (optionally .env).
// Required values are validated for presence only; everything else gets a
// default.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		BaseURL:       defaultBaseURL,
		PageSize:      defaultPageSize,
		RequestDelay:  defaultRequestDelay,
		RetryDelay:    defaultRetryDelay,
		MaxAttempts:   defaultMaxAttempts,
		HTTPTimeout:   defaultHTTPTimeout,
		FetchInterval: defaultFetchInterval,
		Port:          defaultAPIPort,
		LogLevel:      "info",
		LogFormat:     "console",
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAQ_API_KEY"))
	if cfg.APIKey == "" {
		return cfg, errors.New("OPENAQ_API_KEY is required")
	}

	if v := strings.TrimSpace(os.Getenv("OPENAQ_BASE_URL")); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	var err error
	if cfg.PageSize, err = intVar("OPENAQ_PAGE_SIZE", cfg.PageSize); err != nil {
		return cfg, err
	}
	if cfg.MaxAttempts, err = intVar("OPENAQ_MAX_ATTEMPTS", cfg.MaxAttempts); err != nil {
		return cfg, err
	}
	if cfg.MaxLocations, err = intVar("MAX_LOCATIONS", 0); err != nil {
		return cfg, err
	}
	if cfg.Port, err = intVar("API_PORT", cfg.Port); err != nil {
		return cfg, err
	}

	if cfg.RequestDelay, err = durationVar("OPENAQ_REQUEST_DELAY", cfg.RequestDelay); err != nil {
		return cfg, err
	}
	if cfg.RetryDelay, err = durationVar("OPENAQ_RETRY_DELAY", cfg.RetryDelay); err != nil {
		return cfg, err
	}
	if cfg.HTTPTimeout, err = durationVar("OPENAQ_REQUEST_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return cfg, err
	}
	if cfg.FetchInterval, err = durationVar("FETCH_INTERVAL", cfg.FetchInterval); err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	cfg.BearerToken = strings.TrimSpace(os.Getenv("API_BEARER_TOKEN"))

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func intVar(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("invalid %s: %s", name, v)
	}
	return n, nil
}

func durationVar(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
