package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/importcheck/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(config.TracingConfig{Enabled: true, SampleRatio: 1}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() failed: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(context.Background(), config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if tracer.Enabled() {
		t.Error("disabled tracer reports enabled")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop span should not carry a trace id")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestTracer_NilSafe(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "nil")
	span.End()
	if tracer.Enabled() || tracer.Shutdown(context.Background()) != nil || tracer.ForceFlush(context.Background()) != nil {
		t.Error("nil tracer misbehaves")
	}
}

func TestTracer_SpansAndAttributes(t *testing.T) {
	tracer, exporter := newTestTracer(t)

	ctx, parent := tracer.Start(context.Background(), "importcheck.validate")
	SetDocumentAttributes(parent, "web.xml", "xml", 512)
	SetOriginAttributes(parent, "cli", "")

	_, child := tracer.Start(ctx, "validate")
	SetResultAttributes(child, false, "MissingRequiredField", "/hosts/host(1)")
	child.End()
	parent.End()

	if TraceID(ctx) == "" {
		t.Error("expected a trace id on the parent context")
	}
	if err := tracer.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	childSpan, parentSpan := spans[0], spans[1]
	if childSpan.Parent.SpanID() != parentSpan.SpanContext.SpanID() {
		t.Error("child span not linked to parent")
	}

	pa := attrMap(parentSpan.Attributes)
	if pa[AttrSource].AsString() != "web.xml" || pa[AttrDocumentBytes].AsInt64() != 512 || pa[AttrOrigin].AsString() != "cli" {
		t.Errorf("unexpected parent attributes: %v", parentSpan.Attributes)
	}
	if _, ok := pa[AttrCommit]; ok {
		t.Error("empty commit should not be recorded")
	}

	ca := attrMap(childSpan.Attributes)
	if ca[AttrValid].AsBool() || ca[AttrViolationKind].AsString() != "MissingRequiredField" {
		t.Errorf("unexpected child attributes: %v", childSpan.Attributes)
	}
}

func TestSetError(t *testing.T) {
	tracer, exporter := newTestTracer(t)

	_, span := tracer.Start(context.Background(), "decode")
	SetError(span, nil)
	SetError(span, errors.New("unexpected EOF"))
	span.End()
	_ = tracer.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected one exception event, got %d", len(spans[0].Events))
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "ParentBased{root:AlwaysOnSampler"},
		{0, "ParentBased{root:AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := newSampler(tt.ratio).Description()
		if len(desc) < len(tt.want) || desc[:len(tt.want)] != tt.want {
			t.Errorf("newSampler(%v) = %q, want prefix %q", tt.ratio, desc, tt.want)
		}
	}
}

func TestHTTPMiddleware(t *testing.T) {
	newTestTracer(t)

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceID(r.Context()) != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("trace context not extracted: %q", TraceID(r.Context()))
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Trace-ID"); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("X-Trace-ID = %q", got)
	}
}
