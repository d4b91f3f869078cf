package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "chatgpt.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CHATGPT_PORT")
	setString(&cfg.Server.CORSOrigin, "CHATGPT_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CHATGPT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CHATGPT_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CHATGPT_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CHATGPT_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CHATGPT_PG_HEALTH_CHECK")
	setBool(&cfg.Auth.Enabled, "CHATGPT_AUTH_ENABLED")
	setString(&cfg.Auth.JWTKey, "CHATGPT_JWT_KEY")
	setDuration(&cfg.Auth.TokenTTL, "CHATGPT_TOKEN_TTL")
	setString(&cfg.Logging.Level, "CHATGPT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CHATGPT_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "CHATGPT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CHATGPT_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "CHATGPT_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.CredentialTTL, "CHATGPT_CACHE_CREDENTIAL_TTL")
	setInt64(&cfg.Dispatch.MaxConcurrent, "CHATGPT_DISPATCH_MAX_CONCURRENT")
	setDuration(&cfg.Dispatch.RequestTimeout, "CHATGPT_DISPATCH_TIMEOUT")
	setString(&cfg.Secrets.EncryptionKey, "ENCRYPTION_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.Enabled && cfg.Auth.JWTKey == "" {
		return errors.New("auth.jwt_key is required when auth is enabled")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Dispatch.MaxConcurrent < 1 {
		return errors.New("dispatch.max_concurrent must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
