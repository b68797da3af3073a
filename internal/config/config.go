package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string   `env:"APP_ENV" validate:"required"`
	Port               string   `env:"PORT" validate:"required"`
	DatabaseURL        string   `env:"DATABASE_URL" validate:"required"`
	RedisURL           string   `env:"REDIS_URL"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	CatalogCacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" validate:"gte=0"`
	SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" validate:"gte=0"`
	// TaxCacheTTL bounds how long a ZIP tax record, including a miss, is cached.
	TaxCacheTTL      time.Duration `env:"TAX_CACHE_TTL" validate:"gte=0"`

	TaxProvider   string        `env:"TAX_PROVIDER" validate:"oneof=db http"`
	TaxAPIURL     string        `env:"TAX_API_URL" validate:"required_if=TaxProvider http"`
	TaxAPITimeout time.Duration `env:"TAX_API_TIMEOUT" validate:"gt=0"`

	StrictStatus       bool `env:"PRICING_STRICT_STATUS"`
	RejectInvalidLines bool `env:"PRICING_REJECT_INVALID_LINES"`

	RateLimitStrategy string        `env:"RATE_LIMIT_STRATEGY" validate:"oneof=sliding fixed"`
	RateLimitMax      int           `env:"RATE_LIMIT_MAX" validate:"gte=0"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" validate:"gt=0"`
	BodyLimitBytes    int64         `env:"BODY_LIMIT_BYTES" validate:"gt=0"`

	MigrateOnStart  bool          `env:"MIGRATE_ON_START"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" validate:"gt=0"`
	HealthTimeout   time.Duration `env:"HEALTH_READY_TIMEOUT" validate:"gt=0"`

	Obs Obs
}

// Obs groups logging, metrics and tracing settings.
type Obs struct {
	LogFormat        string  `env:"OBS_LOG_FORMAT" validate:"oneof=json console"`
	LogLevel         string  `env:"OBS_LOG_LEVEL"`
	MetricsNamespace string  `env:"OBS_METRICS_NAMESPACE" validate:"required"`
	MetricsBuckets   string  `env:"OBS_METRICS_BUCKETS_MS"`
	EnablePrometheus bool    `env:"OBS_ENABLE_PROMETHEUS"`
	EnableTracing    bool    `env:"OBS_ENABLE_TRACING"`
	TracingExporter  string  `env:"OBS_TRACING_EXPORTER" validate:"oneof=otlp none"`
	OTLPEndpoint     string  `env:"OBS_OTLP_ENDPOINT"`
	SamplingRatio    float64 `env:"OBS_TRACING_SAMPLING_RATIO" validate:"gte=0,lte=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		SettingsCacheTTL:   parseDuration(k.String("SETTINGS_CACHE_TTL"), "30s"),
		TaxCacheTTL:        parseDuration(k.String("TAX_CACHE_TTL"), "10m"),
		TaxProvider:        strings.ToLower(valueOrDefault(k.String("TAX_PROVIDER"), "db")),
		TaxAPIURL:          strings.TrimSpace(k.String("TAX_API_URL")),
		TaxAPITimeout:      parseDuration(k.String("TAX_API_TIMEOUT"), "2s"),
		StrictStatus:       parseBool(k.String("PRICING_STRICT_STATUS"), false),
		RejectInvalidLines: parseBool(k.String("PRICING_REJECT_INVALID_LINES"), false),
		RateLimitStrategy:  strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_STRATEGY"), "sliding")),
		RateLimitMax:       parseInt(k.String("RATE_LIMIT_MAX"), 120),
		RateLimitWindow:    parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		BodyLimitBytes:     int64(parseInt(k.String("BODY_LIMIT_BYTES"), 64<<10)),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START"), false),
		ReadTimeout:        parseDuration(k.String("HTTP_READ_TIMEOUT"), "10s"),
		WriteTimeout:       parseDuration(k.String("HTTP_WRITE_TIMEOUT"), "15s"),
		ShutdownTimeout:    parseDuration(k.String("HTTP_SHUTDOWN_TIMEOUT"), "15s"),
		HealthTimeout:      parseDuration(k.String("HEALTH_READY_TIMEOUT"), "500ms"),
		Obs: Obs{
			LogFormat:        strings.ToLower(valueOrDefault(k.String("OBS_LOG_FORMAT"), "json")),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "checkout"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			EnablePrometheus: parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  strings.ToLower(valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp")),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		if c.TaxAPIURL != "" {
			if verr := validate.Var(c.TaxAPIURL, "url"); verr != nil {
				return errors.New("TAX_API_URL must be a valid URL")
			}
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return parsed
	}
	return fallback
}

func parseFloat(value string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return parsed
	}
	return fallback
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
