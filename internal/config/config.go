// Package config loads the engine's runtime configuration from
// environment variables, grounded on the teacher repo's
// common/os.go#SetConfigFromEnvVars reflection-based loader: a plain
// struct with `env:"..."` tags, no external config library, defaults
// applied after the reflection pass for anything left unset (spec.md
// §6).
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/ironvault/walletledger/internal/constant"
)

// Config is every option spec.md §6 names, plus the optional replica
// and Redis addresses SPEC_FULL.md §B.1/§B.2 add.
type Config struct {
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`

	DBReplicaHost string `env:"DB_REPLICA_HOST"`

	DBPoolMinConns       int `env:"DB_POOL_MIN_CONNS"`
	DBPoolMaxConns       int `env:"DB_POOL_MAX_CONNS"`
	DBConnTimeoutMs      int `env:"DB_CONN_TIMEOUT_MS"`
	DBIdleTimeoutMs      int `env:"DB_IDLE_TIMEOUT_MS"`
	DBStatementTimeoutMs int `env:"DB_STATEMENT_TIMEOUT_MS"`

	RetryMaxAttempts   int `env:"RETRY_MAX_ATTEMPTS"`
	RetryBaseBackoffMs int `env:"RETRY_BASE_BACKOFF_MS"`
	RetryJitterMs      int `env:"RETRY_JITTER_MS"`

	IdempotencyTTLHours int `env:"IDEMPOTENCY_TTL_HOURS"`

	HistoryDefaultLimit int `env:"HISTORY_DEFAULT_LIMIT"`
	HistoryMaxLimit     int `env:"HISTORY_MAX_LIMIT"`

	RedisAddr string `env:"REDIS_ADDR"`

	LogLevel          string `env:"LOG_LEVEL"`
	ShutdownTimeoutMs int    `env:"SHUTDOWN_TIMEOUT_MS"`
}

// FromEnv populates a Config by walking its fields via reflection and
// reading each `env` tag from the process environment, exactly as the
// teacher's SetConfigFromEnvVars does for its own service structs.
// Defaults are applied afterward for anything left at its zero value.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := setFromEnvVars(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

func setFromEnvVars(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		envKey := field.Tag.Get("env")
		if envKey == "" {
			continue
		}

		raw, ok := os.LookupEnv(envKey)
		if !ok || raw == "" {
			continue
		}

		fieldValue := v.Field(i)

		switch fieldValue.Kind() {
		case reflect.String:
			fieldValue.SetString(raw)
		case reflect.Int:
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("parse %s=%q as int: %w", envKey, raw, err)
			}

			fieldValue.SetInt(int64(parsed))
		default:
			return fmt.Errorf("unsupported config field kind %s for %s", fieldValue.Kind(), envKey)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}

	if cfg.DBPoolMinConns == 0 {
		cfg.DBPoolMinConns = 10
	}

	if cfg.DBPoolMaxConns == 0 {
		cfg.DBPoolMaxConns = 50
	}

	if cfg.DBConnTimeoutMs == 0 {
		cfg.DBConnTimeoutMs = 30000
	}

	if cfg.DBIdleTimeoutMs == 0 {
		cfg.DBIdleTimeoutMs = 10000
	}

	if cfg.DBStatementTimeoutMs == 0 {
		cfg.DBStatementTimeoutMs = 30000
	}

	if cfg.RetryMaxAttempts == 0 {
		cfg.RetryMaxAttempts = constant.DefaultMaxAttempts
	}

	if cfg.RetryBaseBackoffMs == 0 {
		cfg.RetryBaseBackoffMs = constant.DefaultBaseBackoffMs
	}

	if cfg.RetryJitterMs == 0 {
		cfg.RetryJitterMs = constant.DefaultJitterMs
	}

	if cfg.IdempotencyTTLHours == 0 {
		cfg.IdempotencyTTLHours = 24
	}

	if cfg.HistoryDefaultLimit == 0 {
		cfg.HistoryDefaultLimit = constant.DefaultHistoryLimit
	}

	if cfg.HistoryMaxLimit == 0 {
		cfg.HistoryMaxLimit = constant.MaxHistoryLimit
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.ShutdownTimeoutMs == 0 {
		cfg.ShutdownTimeoutMs = 30000
	}
}
