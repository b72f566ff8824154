// Package tracing provides OpenTelemetry tracing for validation runs.
//
// A validation opens an "importcheck.validate" span with "decode" and
// "validate" children. Spans are exported over OTLP gRPC when
// telemetry.tracing.enabled is set; otherwise a no-op tracer is used and
// the calls cost next to nothing.
//
//	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "importcheck.validate")
//	defer span.End()
//	tracing.SetDocumentAttributes(span, "web.xml", "xml", len(data))
//
// Incoming HTTP requests carry W3C trace context through HTTPMiddleware.
package tracing
