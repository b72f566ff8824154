package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on validation spans.
const (
	AttrSource        = "importcheck.source"
	AttrFormat        = "importcheck.format"
	AttrDocumentBytes = "importcheck.document.bytes"
	AttrVersion       = "importcheck.document.version"
	AttrOrigin        = "importcheck.origin"
	AttrCommit        = "importcheck.commit"

	AttrValid         = "importcheck.valid"
	AttrViolationKind = "importcheck.violation.kind"
	AttrViolationPath = "importcheck.violation.path"

	AttrErrorMessage = "error.message"
)

// SetDocumentAttributes records what is being validated.
func SetDocumentAttributes(span trace.Span, source, format string, size int) {
	span.SetAttributes(
		attribute.String(AttrSource, source),
		attribute.String(AttrFormat, format),
		attribute.Int(AttrDocumentBytes, size),
	)
}

// SetResultAttributes records the outcome of a validation pass. kind and
// path are omitted for valid documents.
func SetResultAttributes(span trace.Span, valid bool, kind, path string) {
	attrs := []attribute.KeyValue{attribute.Bool(AttrValid, valid)}
	if kind != "" {
		attrs = append(attrs, attribute.String(AttrViolationKind, kind))
	}
	if path != "" {
		attrs = append(attrs, attribute.String(AttrViolationPath, path))
	}
	span.SetAttributes(attrs...)
}

// SetOriginAttributes records the entry point and git commit, if any.
func SetOriginAttributes(span trace.Span, origin, commit string) {
	if origin != "" {
		span.SetAttributes(attribute.String(AttrOrigin, origin))
	}
	if commit != "" {
		span.SetAttributes(attribute.String(AttrCommit, commit))
	}
}
