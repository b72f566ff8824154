// Package metrics provides Prometheus metrics for importcheck.
//
// A Collector owns a private registry so tests and embedded servers never
// collide on the global one. All metric names share the configured
// namespace (default "importcheck"):
//
//	importcheck_validations_total{result,kind}
//	importcheck_validation_duration_seconds{format}
//	importcheck_documents_bytes{format}
//	importcheck_reports_stored_total{backend}
//	importcheck_reports_pruned_total{reason}
//	importcheck_watch_events_total{op}
//
// Usage:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	collector.RecordValidation("xml", metrics.ResultInvalid, "MissingRequiredField", len(data), elapsed)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Every Record method is safe on a nil or disabled Collector.
package metrics
