package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jcmexdev/braider-storefront/internal/storefront/infra/adapters/formcollector"
)

type Config struct {
	HTTPPort          string
	FormEndpoint      string
	FormTimeout       time.Duration // 0 means the request is never cut short
	RedisAddr         string        // empty selects the in-process cache
	SessionTTL        time.Duration
	ConfirmationTTL   time.Duration
	SubmissionLogPath string // empty disables the audit log
	ShutdownTimeout   time.Duration
	OTLPEndpoint      string // empty disables trace export
	ServiceName       string
	Environment       string
	LogLevel          string
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		FormEndpoint:      getEnv("FORM_ENDPOINT", formcollector.DefaultEndpoint),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		SubmissionLogPath: os.Getenv("SUBMISSION_LOG_PATH"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:       getEnv("OTEL_SERVICE_NAME", "braider-storefront"),
		Environment:       getEnv("APP_ENV", "local"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"FORM_TIMEOUT", 0, &cfg.FormTimeout},
		{"SESSION_TTL", 24 * time.Hour, &cfg.SessionTTL},
		{"CONFIRMATION_TTL", 24 * time.Hour, &cfg.ConfirmationTTL},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if cfg.SessionTTL <= 0 || cfg.ConfirmationTTL <= 0 {
		return nil, errors.New("SESSION_TTL and CONFIRMATION_TTL must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", key, d)
	}
	return d, nil
}
