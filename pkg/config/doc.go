// Package config provides configuration management for importcheck.
//
// Configuration is read from a YAML file, completed with defaults and
// overridden by environment variables:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("importcheck.yaml")
//
// Commands use Load, which tolerates a missing file:
//
//	cfg, err := config.Load(path, true)
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention IMPORTCHECK_SECTION_FIELD:
//
//   - IMPORTCHECK_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - IMPORTCHECK_STORAGE_DRIVER overrides storage.driver
//   - IMPORTCHECK_GIT_AUTH_TOKEN overrides git.auth.token
//   - IMPORTCHECK_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation, which reports every invalid field at once
//
// # Singleton
//
// Initialize stores the configuration for process-wide access through
// GetConfig. Library code should take a *Config or a section instead.
package config
