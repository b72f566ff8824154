package metrics

import (
	"time"

	"mercator-hq/importcheck/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Validation results used as the "result" label.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Collector records validation, storage and watcher metrics.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	validation *ValidationMetrics
	storage    *StorageMetrics
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil a new private registry is created.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		enabled:    config.BoolValue(cfg.Enabled, config.DefaultMetricsEnabled),
		registry:   registry,
		validation: NewValidationMetrics(cfg, registry),
		storage:    NewStorageMetrics(cfg, registry),
	}
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// RecordValidation records one validation pass.
//
// Parameters:
//   - format: document format ("xml", "json", "yaml")
//   - result: ResultValid, ResultInvalid or ResultError
//   - kind: violation or decode error kind, empty for valid documents
//   - size: input size in bytes
//   - duration: decode plus validate time
func (c *Collector) RecordValidation(format, result, kind string, size int, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	if kind == "" {
		kind = "none"
	}
	c.validation.Record(format, result, kind, size, duration)
}

// RecordReportStored counts a report written to the given backend.
func (c *Collector) RecordReportStored(backend string) {
	if !c.Enabled() {
		return
	}
	c.storage.reportsStored.WithLabelValues(backend).Inc()
}

// RecordReportsPruned counts reports removed by retention ("age" or "count").
func (c *Collector) RecordReportsPruned(reason string, n int) {
	if !c.Enabled() || n <= 0 {
		return
	}
	c.storage.reportsPruned.WithLabelValues(reason).Add(float64(n))
}

// RecordWatchEvent counts a filesystem event accepted by the watcher.
func (c *Collector) RecordWatchEvent(op string) {
	if !c.Enabled() {
		return
	}
	c.storage.watchEvents.WithLabelValues(op).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
