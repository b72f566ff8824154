package config

import "time"

// Config is the root configuration structure for importcheck.
// It contains all configuration sections for validation, the HTTP server,
// report storage, the directory watcher, the git source and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and the request body limit.
	Server ServerConfig `yaml:"server"`

	// Validation contains settings shared by every validation entry point.
	Validation ValidationConfig `yaml:"validation"`

	// Storage selects and configures the report database.
	Storage StorageConfig `yaml:"storage"`

	// Retention controls how long validation reports are kept.
	Retention RetentionConfig `yaml:"retention"`

	// Watch configures the directory watcher.
	Watch WatchConfig `yaml:"watch"`

	// Git configures the repository export files are synchronized from.
	Git GitConfig `yaml:"git"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds the handling of a single API request.
	// Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxBodySize is the largest document accepted by the validate endpoint.
	// Default: 10485760 (10MB)
	MaxBodySize int64 `yaml:"max_body_size"`

	// TLS serves the API over HTTPS.
	TLS TLSConfig `yaml:"tls"`

	// Auth requires an API key on /api/v1 routes.
	Auth AuthConfig `yaml:"auth"`
}

// TLSConfig contains HTTPS settings for the server.
type TLSConfig struct {
	Enabled bool `yaml:"enabled"`

	// CertFile and KeyFile are PEM files. Both are reloaded when either
	// changes on disk.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`
}

// AuthConfig contains API key authentication settings.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`

	// Header carries the key. "Authorization: Bearer <key>" is always
	// accepted as well.
	// Default: "X-API-Key"
	Header string `yaml:"header"`

	// Keys lists the clients allowed to call the API.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig is one API client.
type APIKeyConfig struct {
	// Name identifies the client in logs.
	Name string `yaml:"name"`

	// Key is the secret. Prefer KeyEnv in committed config files.
	Key string `yaml:"key"`

	// KeyEnv names an environment variable holding the key.
	KeyEnv string `yaml:"key_env"`

	// Disabled keys are rejected.
	Disabled bool `yaml:"disabled"`
}

// ValidationConfig contains settings for decoding and validating exports.
type ValidationConfig struct {
	// MaxFileSize is the largest export file accepted, in bytes.
	// Default: 10485760 (10MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// DefaultFormat forces a document format.
	// Options: "auto", "xml", "json", "yaml"
	// Default: "auto"
	DefaultFormat string `yaml:"default_format"`

	// Concurrency is the number of files validated in parallel by batch runs.
	// Default: number of CPUs
	Concurrency int `yaml:"concurrency"`

	// Extensions lists file extensions picked up when expanding directories.
	// Default: [".xml", ".json", ".yaml", ".yml"]
	Extensions []string `yaml:"extensions"`

	// Locale selects the language of violation messages.
	// Default: "en"
	Locale string `yaml:"locale"`

	// Suggestions attaches "did you mean" hints to unexpected tags.
	// Default: true
	Suggestions *bool `yaml:"suggestions"`
}

// StorageConfig contains configuration for the report database.
type StorageConfig struct {
	// Enabled controls whether validation reports are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Driver selects the SQLite driver.
	// Options: "sqlite3" (mattn/go-sqlite3, cgo), "sqlite" (modernc.org/sqlite, pure Go)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file path.
	// Default: "data/reports.db"
	Path string `yaml:"path"`

	// WALMode enables SQLite write-ahead logging.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BufferSize is the capacity of the asynchronous recorder queue.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`

	// WriteTimeout bounds a single report write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig controls report pruning.
type RetentionConfig struct {
	// RetentionDays deletes reports older than this many days. A negative
	// value disables age based pruning.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for automatic pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords keeps at most this many reports. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// ArchiveBeforeDelete writes pruned reports to ArchivePath as JSON.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory archived reports are written to.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	// Path is the directory watched for export files.
	// Default: "."
	Path string `yaml:"path"`

	// Debounce is how long a file must stay unchanged before it is validated.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// Workers is the size of the validation worker pool.
	// Default: 4
	Workers int `yaml:"workers"`

	// QueueSize bounds the number of pending validations. 0 is unbounded.
	// Default: 100
	QueueSize int `yaml:"queue_size"`

	// SkipHidden ignores files and directories starting with a dot.
	// Default: true
	SkipHidden *bool `yaml:"skip_hidden"`
}

// GitConfig configures the git source.
type GitConfig struct {
	// Repository is the URL of the repository holding export files.
	// Supports HTTPS, SSH and file URLs.
	Repository string `yaml:"repository"`

	// Branch is the branch to check out.
	// Default: "main"
	Branch string `yaml:"branch"`

	// LocalPath is where the repository is cloned.
	// Default: "data/exports-repo"
	LocalPath string `yaml:"local_path"`

	// Subdir restricts validation to a directory inside the repository.
	Subdir string `yaml:"subdir"`

	// Depth makes clones shallow. 0 clones full history.
	// Default: 1
	Depth int `yaml:"depth"`

	// Timeout bounds clone and pull operations.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Auth contains credentials for private repositories.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig contains git authentication settings.
type GitAuthConfig struct {
	// Type is the authentication method.
	// Options: "none", "token", "ssh"
	// Default: "none"
	Type string `yaml:"type"`

	// Username for token authentication.
	// Default: "git"
	Username string `yaml:"username"`

	// Token is the access token. Prefer IMPORTCHECK_GIT_AUTH_TOKEN.
	Token string `yaml:"token"`

	// SSHKeyPath is the private key used for SSH authentication.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassword decrypts the SSH key.
	SSHKeyPassword string `yaml:"ssh_key_password"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks credentials found in export fields and log attributes.
	// Default: true
	Redact *bool `yaml:"redact"`

	// RedactPatterns adds custom value patterns to the redactor.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom redaction rule.
type RedactPattern struct {
	// Name identifies the pattern in logs.
	Name string `yaml:"name"`

	// Pattern is a regular expression matched against string values.
	Pattern string `yaml:"pattern"`

	// Replacement is the text substituted for matches.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "importcheck"
	Namespace string `yaml:"namespace"`

	// Subsystem is inserted between namespace and metric name.
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether traces are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: true
	Insecure *bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces sampled, between 0 and 1.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the OpenTelemetry service.name resource.
	// Default: "importcheck"
	ServiceName string `yaml:"service_name"`
}

// BoolValue dereferences an optional boolean, returning def when unset.
func BoolValue(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Bool returns a pointer to b, for building configurations in code.
func Bool(b bool) *bool {
	return &b
}
