package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/telemetry/health"
	"mercator-hq/importcheck/pkg/telemetry/logging"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
	"mercator-hq/importcheck/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Telemetry holds the initialized observability components.
type Telemetry struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
	Build   BuildInfo
}

// Option customizes New.
type Option func(*options)

type options struct {
	logWriter io.Writer
	logLevel  string
}

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithLogLevel overrides the configured log level.
func WithLogLevel(level string) Option {
	return func(o *options) { o.logLevel = level }
}

// New initializes logging, metrics, tracing and health checks from the
// telemetry section of the configuration.
func New(ctx context.Context, cfg config.TelemetryConfig, build BuildInfo, opts ...Option) (*Telemetry, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logCfg := logging.FromConfig(cfg.Logging)
	logCfg.Writer = o.logWriter
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	tracer, err := tracing.New(ctx, cfg.Tracing, build.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &Telemetry{
		Logger:  logger,
		Metrics: metrics.NewCollector(cfg.Metrics, nil),
		Tracer:  tracer,
		Health:  health.New(2 * time.Second),
		Build:   build,
	}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}
