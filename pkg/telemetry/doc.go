// Package telemetry bundles the observability components of importcheck:
//
//   - logging: slog logger with credential redaction
//   - metrics: Prometheus collector on a private registry
//   - tracing: OpenTelemetry tracer exporting over OTLP gRPC
//   - health: liveness, readiness and version endpoints
//
// Usage:
//
//	tel, err := telemetry.New(ctx, cfg.Telemetry, telemetry.BuildInfo{Version: version})
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//	slog.SetDefault(tel.Logger.Slog())
package telemetry
