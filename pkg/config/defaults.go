package config

import (
	"runtime"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxBodySize     = 10 * 1024 * 1024 // 10MB
	DefaultTLSMinVersion   = "1.2"
	DefaultAuthHeader      = "X-API-Key"

	// Validation defaults
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB
	DefaultFormat      = "auto"
	DefaultLocale      = "en"
	DefaultSuggestions = true

	// Storage defaults
	DefaultStorageEnabled      = false
	DefaultStorageBackend      = "sqlite"
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/reports.db"
	DefaultStorageWALMode      = true
	DefaultStorageBusyTimeout  = 5 * time.Second
	DefaultStorageMaxOpenConns = 10
	DefaultStorageMaxIdleConns = 5
	DefaultStorageBufferSize   = 1000
	DefaultStorageWriteTimeout = 5 * time.Second

	// Retention defaults
	DefaultRetentionDays        = 90
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionMaxRecords  = int64(0)
	DefaultRetentionArchivePath = "data/archives/"

	// Watch defaults
	DefaultWatchPath       = "."
	DefaultWatchDebounce   = 100 * time.Millisecond
	DefaultWatchWorkers    = 4
	DefaultWatchQueueSize  = 100
	DefaultWatchSkipHidden = true

	// Git defaults
	DefaultGitBranch    = "main"
	DefaultGitLocalPath = "data/exports-repo"
	DefaultGitDepth     = 1
	DefaultGitTimeout   = 60 * time.Second
	DefaultGitAuthType  = "none"
	DefaultGitUsername  = "git"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultLoggingRedact      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "importcheck"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingInsecure    = true
	DefaultTracingSampleRatio = 1.0
	DefaultTracingService     = "importcheck"
)

// DefaultExtensions are the file extensions treated as export documents.
var DefaultExtensions = []string{".xml", ".json", ".yaml", ".yml"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.Auth.Header == "" {
		cfg.Server.Auth.Header = DefaultAuthHeader
	}

	// Validation defaults
	if cfg.Validation.MaxFileSize == 0 {
		cfg.Validation.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Validation.DefaultFormat == "" {
		cfg.Validation.DefaultFormat = DefaultFormat
	}
	if cfg.Validation.Concurrency == 0 {
		cfg.Validation.Concurrency = runtime.NumCPU()
	}
	if len(cfg.Validation.Extensions) == 0 {
		cfg.Validation.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Validation.Locale == "" {
		cfg.Validation.Locale = DefaultLocale
	}
	if cfg.Validation.Suggestions == nil {
		cfg.Validation.Suggestions = Bool(DefaultSuggestions)
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.WALMode == nil {
		cfg.Storage.WALMode = Bool(DefaultStorageWALMode)
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = DefaultStorageMaxIdleConns
	}
	if cfg.Storage.BufferSize == 0 {
		cfg.Storage.BufferSize = DefaultStorageBufferSize
	}
	if cfg.Storage.WriteTimeout == 0 {
		cfg.Storage.WriteTimeout = DefaultStorageWriteTimeout
	}

	// Retention defaults
	if cfg.Retention.RetentionDays == 0 {
		cfg.Retention.RetentionDays = DefaultRetentionDays
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if cfg.Retention.ArchivePath == "" {
		cfg.Retention.ArchivePath = DefaultRetentionArchivePath
	}

	// Watch defaults
	if cfg.Watch.Path == "" {
		cfg.Watch.Path = DefaultWatchPath
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	if cfg.Watch.Workers == 0 {
		cfg.Watch.Workers = DefaultWatchWorkers
	}
	if cfg.Watch.QueueSize == 0 {
		cfg.Watch.QueueSize = DefaultWatchQueueSize
	}
	if cfg.Watch.SkipHidden == nil {
		cfg.Watch.SkipHidden = Bool(DefaultWatchSkipHidden)
	}

	// Git defaults
	if cfg.Git.Branch == "" {
		cfg.Git.Branch = DefaultGitBranch
	}
	if cfg.Git.LocalPath == "" {
		cfg.Git.LocalPath = DefaultGitLocalPath
	}
	if cfg.Git.Depth == 0 {
		cfg.Git.Depth = DefaultGitDepth
	}
	if cfg.Git.Timeout == 0 {
		cfg.Git.Timeout = DefaultGitTimeout
	}
	if cfg.Git.Auth.Type == "" {
		cfg.Git.Auth.Type = DefaultGitAuthType
	}
	if cfg.Git.Auth.Username == "" {
		cfg.Git.Auth.Username = DefaultGitUsername
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.Redact == nil {
		cfg.Telemetry.Logging.Redact = Bool(DefaultLoggingRedact)
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = Bool(DefaultMetricsEnabled)
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Insecure == nil {
		cfg.Telemetry.Tracing.Insecure = Bool(DefaultTracingInsecure)
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
}
