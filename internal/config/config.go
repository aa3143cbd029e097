package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config captures the runtime configuration for the service.
type Config struct {
	HTTPAddress  string `env:"HTTP_ADDRESS" validate:"required"`
	DBDriver     string `env:"DB_DRIVER" validate:"oneof=postgres sqlite memory"`
	DatabaseURL  string `env:"DATABASE_URL" validate:"required_unless=DBDriver memory"`
	DBMaxRetries uint   `env:"DB_MAX_RETRIES" validate:"lte=20"`
	LogMode      string `env:"LOG_MODE" validate:"oneof=dev development prod production"`

	RedisAddr         string `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisAuditChannel string `env:"REDIS_AUDIT_CHANNEL" validate:"required"`

	CertificateBaseURL string `env:"CERTIFICATE_BASE_URL" validate:"required,url"`

	SignupBonusCredits     int64 `env:"SIGNUP_BONUS_CREDITS" validate:"gte=0"`
	CompletionBonusCredits int64 `env:"COMPLETION_BONUS_CREDITS" validate:"gte=0"`
}

// Load reads configuration from the environment with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddress:        valueOrDefault(os.Getenv("HTTP_ADDRESS"), ":8080"),
		DBDriver:           strings.ToLower(valueOrDefault(os.Getenv("DB_DRIVER"), DriverPostgres)),
		DatabaseURL:        valueOrDefault(os.Getenv("DATABASE_URL"), ""),
		LogMode:            strings.ToLower(valueOrDefault(os.Getenv("LOG_MODE"), "dev")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisAuditChannel:  valueOrDefault(os.Getenv("REDIS_AUDIT_CHANNEL"), "audit"),
		CertificateBaseURL: valueOrDefault(os.Getenv("CERTIFICATE_BASE_URL"), "https://certificates.local"),
	}

	retries, err := uintValue("DB_MAX_RETRIES", 3)
	if err != nil {
		return cfg, err
	}
	cfg.DBMaxRetries = retries

	if cfg.SignupBonusCredits, err = creditValue("SIGNUP_BONUS_CREDITS"); err != nil {
		return cfg, err
	}
	if cfg.CompletionBonusCredits, err = creditValue("COMPLETION_BONUS_CREDITS"); err != nil {
		return cfg, err
	}

	return cfg, validate(cfg)
}

// validate checks cfg against its struct tags and reports failures by
// environment variable name.
func validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	err := v.Struct(cfg)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_unless":
			parts = append(parts, fmt.Sprintf("%s must be provided", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of %s; got %q", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(parts, "; "))
}

func valueOrDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func uintValue(key string, fallback uint) (uint, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", key, err)
	}
	return uint(n), nil
}

func creditValue(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}
