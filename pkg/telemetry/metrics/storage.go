package metrics

import (
	"mercator-hq/importcheck/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics tracks the report store and the directory watcher.
type StorageMetrics struct {
	reportsStored *prometheus.CounterVec
	reportsPruned *prometheus.CounterVec
	watchEvents   *prometheus.CounterVec
}

// NewStorageMetrics creates and registers report and watcher metrics.
func NewStorageMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		reportsStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reports_stored_total",
				Help:      "Total number of validation reports stored",
			},
			[]string{"backend"},
		),

		reportsPruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reports_pruned_total",
				Help:      "Total number of validation reports removed by retention",
			},
			[]string{"reason"},
		),

		watchEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "watch_events_total",
				Help:      "Total number of filesystem events handled by the watcher",
			},
			[]string{"op"},
		),
	}

	registry.MustRegister(sm.reportsStored, sm.reportsPruned, sm.watchEvents)

	return sm
}
