package metrics

import (
	"time"

	"mercator-hq/importcheck/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ValidationMetrics tracks document validation.
//
// Metrics:
//   - importcheck_validations_total: validations by result and violation kind
//   - importcheck_validation_duration_seconds: decode plus validate duration
//   - importcheck_documents_bytes: size of validated documents
type ValidationMetrics struct {
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	documentBytes      *prometheus.HistogramVec
}

// NewValidationMetrics creates and registers validation metrics.
func NewValidationMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *ValidationMetrics {
	vm := &ValidationMetrics{
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of import documents validated",
			},
			[]string{"result", "kind"},
		),

		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Duration of document decoding and validation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
			[]string{"format"},
		),

		documentBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "documents_bytes",
				Help:      "Size of validated import documents in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to 16MB
			},
			[]string{"format"},
		),
	}

	registry.MustRegister(
		vm.validationsTotal,
		vm.validationDuration,
		vm.documentBytes,
	)

	return vm
}

// Record records a single validation.
func (vm *ValidationMetrics) Record(format, result, kind string, size int, duration time.Duration) {
	vm.validationsTotal.WithLabelValues(result, kind).Inc()
	vm.validationDuration.WithLabelValues(format).Observe(duration.Seconds())
	vm.documentBytes.WithLabelValues(format).Observe(float64(size))
}
