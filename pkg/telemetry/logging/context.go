package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey contextKey = "request_id"

	// SourceKey is the context key for the export file being validated.
	SourceKey contextKey = "source"

	// OriginKey is the context key for the entry point (cli, http, watch, git).
	OriginKey contextKey = "origin"

	// CommitKey is the context key for the git commit being validated.
	CommitKey contextKey = "commit"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// ClientKey is the context key for the authenticated API client.
	ClientKey contextKey = "client"
)

var contextKeys = []contextKey{RequestIDKey, SourceKey, OriginKey, CommitKey, TraceIDKey, ClientKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithSource adds the export file name to the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, SourceKey, source)
}

// GetSource retrieves the export file name from the context.
func GetSource(ctx context.Context) string {
	return getString(ctx, SourceKey)
}

// WithOrigin adds the entry point name to the context.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, OriginKey, origin)
}

// GetOrigin retrieves the entry point name from the context.
func GetOrigin(ctx context.Context) string {
	return getString(ctx, OriginKey)
}

// WithCommit adds a git commit SHA to the context.
func WithCommit(ctx context.Context, commit string) context.Context {
	return context.WithValue(ctx, CommitKey, commit)
}

// GetCommit retrieves the git commit SHA from the context.
func GetCommit(ctx context.Context) string {
	return getString(ctx, CommitKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

// WithClient adds the authenticated API client name to the context.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ClientKey, client)
}

// GetClient retrieves the API client name from the context.
func GetClient(ctx context.Context) string {
	return getString(ctx, ClientKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, slog.String(string(key), v))
		}
	}
	return fields
}

// contextHandler adds the context fields to every record logged with a
// context, so components only need to pass ctx to the *Context methods.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		record = record.Clone()
		record.AddAttrs(fields...)
	}
	return h.next.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
