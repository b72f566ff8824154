// Package server exposes the validation service over HTTP.
//
// # Routes
//
//   - POST /api/v1/validate - validate the request body. The format comes from
//     ?format= or the Content-Type header, the message language from ?lang=
//     or Accept-Language. Answers 200 for valid exports, 422 for invalid ones,
//     400 when the body cannot be decoded and 413 when it exceeds
//     server.max_body_size.
//   - GET /api/v1/reports - list stored reports. Accepts source, origin,
//     commit, fingerprint, kind, valid, start_time, end_time (RFC 3339),
//     limit, offset, sort_by and sort_order.
//   - GET /api/v1/reports/{id} - fetch one report.
//   - GET /api/v1/reports/export?format=json|csv - download matching reports.
//   - GET /health, /ready, /version - probes, when WithHealth is set.
//   - GET /metrics - Prometheus metrics, when WithMetrics is set.
//
// The report routes answer 503 when the server runs without storage.
//
// # Middleware Chain
//
// Outermost first: panic recovery, request ID, request logging, trace context
// extraction, request timeout. With WithAuth the /api/ routes additionally
// require an API key in the configured header or as a Bearer token; probes and
// metrics stay open.
//
// With WithTLS the listener serves HTTPS using the reloader's current
// certificate, so renewed certificates are picked up without a restart.
//
// # Usage
//
//	srv := server.New(&cfg.Server, service,
//	    server.WithStorage(store),
//	    server.WithHealth(tel.Health, tel.Build),
//	    server.WithMetrics(tel.Metrics, cfg.Telemetry.Metrics.Path),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests for up to server.shutdown_timeout.
package server
