package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"
	_ "time/tzdata" // timezone validation must not depend on host zoneinfo

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Values come from an optional YAML
// file named by HISTTEMPS_CONFIG, overridden by environment variables.
type Config struct {
	// Geocoding configuration.
	Geocoder         string `yaml:"geocoder" env:"GEOCODER" validate:"oneof=openmeteo google"`
	GeocodingBaseURL string `yaml:"geocoding_base_url" env:"GEOCODING_BASE_URL" validate:"required,url"`
	GoogleAPIKey     string `yaml:"google_api_key" env:"GOOGLE_GEOCODING_API_KEY" validate:"required_if=Geocoder google"`
	GeocodeCacheSize int    `yaml:"geocode_cache_size" env:"GEOCODE_CACHE_SIZE" validate:"gte=0"`

	// Weather archive configuration.
	ArchiveBaseURL   string `yaml:"archive_base_url" env:"ARCHIVE_BASE_URL" validate:"required,url"`
	ArchiveTimezone  string `yaml:"archive_timezone" env:"ARCHIVE_TIMEZONE" validate:"required,timezone"`
	DefaultStartDate string `yaml:"default_start_date" env:"DEFAULT_START_DATE" validate:"required,datetime=2006-01-02"`
	DefaultEndDate   string `yaml:"default_end_date" env:"DEFAULT_END_DATE" validate:"required,datetime=2006-01-02"`

	HTTPTimeout        time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" validate:"gt=0"`
	BreakerMaxFailures int           `yaml:"breaker_max_failures" env:"BREAKER_MAX_FAILURES" validate:"gte=1"`

	TopDays int `yaml:"top_days" env:"TOP_DAYS" validate:"gte=1"`

	MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `yaml:"-" env:"SHUTDOWN_TIMEOUT"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report env var names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

func defaults() Config {
	return Config{
		Geocoder:           "openmeteo",
		GeocodingBaseURL:   "https://geocoding-api.open-meteo.com/v1/search",
		ArchiveBaseURL:     "https://archive-api.open-meteo.com/v1/archive",
		ArchiveTimezone:    "America/Los_Angeles",
		DefaultStartDate:   "1950-08-13",
		DefaultEndDate:     "2023-08-25",
		HTTPTimeout:        30 * time.Second,
		BreakerMaxFailures: 5,
		TopDays:            5,
		LogLevel:           "warn",
		LogFormat:          "text",
	}
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	base := defaults()
	if path := os.Getenv("HISTTEMPS_CONFIG"); path != "" {
		if err := loadFile(path, &base); err != nil {
			return nil, err
		}
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", base.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("GEOCODE_CACHE_SIZE", base.GeocodeCacheSize)
	if err != nil {
		return nil, err
	}
	maxFailures, err := parseInt("BREAKER_MAX_FAILURES", base.BreakerMaxFailures)
	if err != nil {
		return nil, err
	}
	topDays, err := parseInt("TOP_DAYS", base.TopDays)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Geocoder:         sharedcfg.EnvOrDefault("GEOCODER", base.Geocoder),
		GeocodingBaseURL: sharedcfg.EnvOrDefault("GEOCODING_BASE_URL", base.GeocodingBaseURL),
		GoogleAPIKey:     sharedcfg.EnvOrDefault("GOOGLE_GEOCODING_API_KEY", base.GoogleAPIKey),
		GeocodeCacheSize: cacheSize,

		ArchiveBaseURL:   sharedcfg.EnvOrDefault("ARCHIVE_BASE_URL", base.ArchiveBaseURL),
		ArchiveTimezone:  sharedcfg.EnvOrDefault("ARCHIVE_TIMEZONE", base.ArchiveTimezone),
		DefaultStartDate: sharedcfg.EnvOrDefault("DEFAULT_START_DATE", base.DefaultStartDate),
		DefaultEndDate:   sharedcfg.EnvOrDefault("DEFAULT_END_DATE", base.DefaultEndDate),

		HTTPTimeout:        httpTimeout,
		BreakerMaxFailures: maxFailures,
		TopDays:            topDays,

		MetricsAddr:     sharedcfg.EnvOrDefault("METRICS_ADDR", base.MetricsAddr),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", base.LogLevel),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", base.LogFormat),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("HISTTEMPS_CONFIG: %s does not exist", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
