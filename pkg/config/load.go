package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "IMPORTCHECK_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention IMPORTCHECK_SECTION_FIELD (e.g., IMPORTCHECK_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return finish(cfg)
}

// Load is the entry point used by the commands. An empty path, or a path
// that does not exist when optional is true, yields the defaults. Environment
// overrides are applied in every case.
func Load(path string, optional bool) (*Config, error) {
	if path != "" {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err == nil || !optional || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	return finish(Default())
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format IMPORTCHECK_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envInt64("SERVER_MAX_BODY_SIZE", &cfg.Server.MaxBodySize)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	envBool("SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)

	// Validation overrides
	envInt64("VALIDATION_MAX_FILE_SIZE", &cfg.Validation.MaxFileSize)
	envString("VALIDATION_DEFAULT_FORMAT", &cfg.Validation.DefaultFormat)
	envInt("VALIDATION_CONCURRENCY", &cfg.Validation.Concurrency)
	envString("VALIDATION_LOCALE", &cfg.Validation.Locale)
	if val := os.Getenv(EnvPrefix + "VALIDATION_EXTENSIONS"); val != "" {
		var exts []string
		for _, ext := range strings.Split(val, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				exts = append(exts, ext)
			}
		}
		cfg.Validation.Extensions = exts
	}

	// Storage overrides
	envBool("STORAGE_ENABLED", &cfg.Storage.Enabled)
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("STORAGE_PATH", &cfg.Storage.Path)
	envDuration("STORAGE_BUSY_TIMEOUT", &cfg.Storage.BusyTimeout)

	// Retention overrides
	envInt("RETENTION_RETENTION_DAYS", &cfg.Retention.RetentionDays)
	envString("RETENTION_PRUNE_SCHEDULE", &cfg.Retention.PruneSchedule)
	envInt64("RETENTION_MAX_RECORDS", &cfg.Retention.MaxRecords)

	// Watch overrides
	envString("WATCH_PATH", &cfg.Watch.Path)
	envDuration("WATCH_DEBOUNCE", &cfg.Watch.Debounce)
	envInt("WATCH_WORKERS", &cfg.Watch.Workers)

	// Git overrides
	envString("GIT_REPOSITORY", &cfg.Git.Repository)
	envString("GIT_BRANCH", &cfg.Git.Branch)
	envString("GIT_LOCAL_PATH", &cfg.Git.LocalPath)
	envString("GIT_SUBDIR", &cfg.Git.Subdir)
	envString("GIT_AUTH_TYPE", &cfg.Git.Auth.Type)
	envString("GIT_AUTH_USERNAME", &cfg.Git.Auth.Username)
	envString("GIT_AUTH_TOKEN", &cfg.Git.Auth.Token)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = Bool(b)
		}
	}
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envInt64(name string, dst *int64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
