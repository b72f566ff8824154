package imports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"mercator-hq/importcheck/pkg/imports/decoder"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
	"mercator-hq/importcheck/pkg/imports/validator"
	"mercator-hq/importcheck/pkg/telemetry/logging"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
	"mercator-hq/importcheck/pkg/telemetry/tracing"
)

// Recorder persists validation results. Implementations must not block the
// caller for long; the report recorder queues results.
type Recorder interface {
	Record(ctx context.Context, result *Result)
}

// Service runs validation passes with tracing, metrics, logging and
// optional report recording. A Service is safe for concurrent use.
type Service struct {
	decoder   *decoder.Decoder
	validator *validator.Validator
	tracer    *tracing.Tracer
	metrics   *metrics.Collector
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDecoder replaces the default decoder.
func WithDecoder(d *decoder.Decoder) ServiceOption {
	return func(s *Service) { s.decoder = d }
}

// WithValidator replaces the default 2.0 validator.
func WithValidator(v *validator.Validator) ServiceOption {
	return func(s *Service) { s.validator = v }
}

// WithTracer sets the tracer for validation spans.
func WithTracer(t *tracing.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithRecorder records every result, for example into the report store.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a validation service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		decoder: decoder.NewDecoder(),
		logger:  slog.Default().With("component", "imports.service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validator.NewValidator(validator.WithLogger(s.logger))
	}
	if s.tracer == nil {
		s.tracer = tracing.Noop()
	}
	return s
}

// Decoder returns the decoder used by the service.
func (s *Service) Decoder() *decoder.Decoder {
	return s.decoder
}

// Validate decodes and validates one document. Invalid and undecodable
// documents are reported in the Result; the error is only non-nil when ctx
// is done before the pass starts.
func (s *Service) Validate(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = in.Path
	}

	ctx = logging.WithSource(ctx, source)
	if in.Origin != "" {
		ctx = logging.WithOrigin(ctx, in.Origin)
	}
	if in.Commit != "" {
		ctx = logging.WithCommit(ctx, in.Commit)
	}

	ctx, span := s.tracer.Start(ctx, "importcheck.validate")
	defer span.End()
	tracing.SetOriginAttributes(span, in.Origin, in.Commit)

	result := &Result{
		Source:    source,
		Origin:    in.Origin,
		Commit:    in.Commit,
		StartedAt: s.now(),
	}

	doc, data, decodeErr := s.decode(ctx, in, source)
	if data != nil {
		sum := sha256.Sum256(data)
		result.Digest = hex.EncodeToString(sum[:])
		result.Size = len(data)
	}

	if decodeErr != nil {
		result.DecodeError = decodeErr
		tracing.SetError(span, decodeErr)
	} else {
		result.Format = doc.Format
		result.Version = doc.Version
		tracing.SetDocumentAttributes(span, source, string(doc.Format), doc.Size)

		_, vspan := s.tracer.Start(ctx, "validate")
		result.Violation = s.validator.Check(doc.Root)
		vspan.End()

		result.Valid = result.Violation == nil
		result.Summary = Summarize(doc.Root)
	}
	result.Duration = s.now().Sub(result.StartedAt)

	var violationPath string
	if result.Violation != nil {
		violationPath = result.Violation.Path.String()
	}
	tracing.SetResultAttributes(span, result.Valid, result.Kind(), violationPath)

	s.observe(ctx, result)

	if s.recorder != nil {
		s.recorder.Record(ctx, result)
	}

	return result, nil
}

// decode reads and decodes the input. The raw bytes are returned whenever
// they could be read so the result carries a digest even for syntax errors.
func (s *Service) decode(ctx context.Context, in Input, source string) (*decoder.Document, []byte, *importErrors.DecodeError) {
	_, span := s.tracer.Start(ctx, "decode")
	defer span.End()

	data := in.Data
	if data == nil {
		var err error
		data, err = s.decoder.ReadFile(in.Path)
		if err != nil {
			return nil, nil, asDecodeError(err, source)
		}
	}

	dec := s.decoder
	if in.Format != decoder.FormatAuto {
		dec = copyDecoder(s.decoder).WithFormat(in.Format)
	}

	doc, err := dec.DecodeBytes(data, source)
	if err != nil {
		tracing.SetError(span, err)
		return nil, data, asDecodeError(err, source)
	}
	return doc, data, nil
}

func (s *Service) observe(ctx context.Context, result *Result) {
	format := string(result.Format)
	if format == "" {
		format = "unknown"
	}

	switch {
	case result.DecodeError != nil:
		s.metrics.RecordValidation(format, metrics.ResultError, result.Kind(), result.Size, result.Duration)
		s.logger.WarnContext(ctx, "export could not be decoded",
			"error", result.DecodeError,
			"duration", result.Duration,
		)
	case result.Violation != nil:
		s.metrics.RecordValidation(format, metrics.ResultInvalid, result.Kind(), result.Size, result.Duration)
		s.logger.InfoContext(ctx, "export is invalid",
			"kind", result.Violation.Kind,
			"path", result.Violation.Path.String(),
			"field", result.Violation.Field,
			"duration", result.Duration,
		)
	default:
		s.metrics.RecordValidation(format, metrics.ResultValid, "", result.Size, result.Duration)
		s.logger.DebugContext(ctx, "export is valid",
			"format", format,
			"version", result.Version,
			"duration", result.Duration,
		)
	}
}

func copyDecoder(d *decoder.Decoder) *decoder.Decoder {
	c := *d
	return &c
}

func asDecodeError(err error, source string) *importErrors.DecodeError {
	var decodeErr *importErrors.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr
	}
	return importErrors.NewDecodeError(importErrors.DecodeErrorIO, source, "Failed to decode document", err)
}
