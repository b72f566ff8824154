package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/imports/messages"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/report/export"
	"mercator-hq/importcheck/pkg/report/query"
	"mercator-hq/importcheck/pkg/telemetry/logging"
)

// Error types returned in the "type" field of error responses.
const (
	errTypeInvalidRequest = "invalid_request"
	errTypeUnauthorized   = "unauthorized"
	errTypeTooLarge       = "request_too_large"
	errTypeNotFound       = "not_found"
	errTypeUnavailable    = "unavailable"
	errTypeTimeout        = "timeout"
	errTypeInternal       = "internal_error"
)

type errorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// ValidateResponse is the body of POST /api/v1/validate.
type ValidateResponse struct {
	Valid      bool             `json:"valid"`
	Source     string           `json:"source"`
	Format     string           `json:"format,omitempty"`
	Version    string           `json:"version,omitempty"`
	Digest     string           `json:"digest,omitempty"`
	Size       int              `json:"size"`
	Message    string           `json:"message,omitempty"`
	Kind       string           `json:"kind,omitempty"`
	Path       string           `json:"path,omitempty"`
	Field      string           `json:"field,omitempty"`
	Line       int              `json:"line,omitempty"`
	Suggestion string           `json:"suggestion,omitempty"`
	Language   string           `json:"language"`
	Summary    *imports.Summary `json:"summary,omitempty"`
	DurationMS float64          `json:"duration_ms"`
}

// ReportList is the body of GET /api/v1/reports.
type ReportList struct {
	Reports []*report.Report `json:"reports"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, errType, msg string) {
	writeJSON(w, code, errorResponse{Error: errorBody{
		Message:   msg,
		Type:      errType,
		RequestID: logging.GetRequestID(r.Context()),
	}})
}

// writeContextError answers a request whose context ended. It returns false
// when err is not a context error.
func writeContextError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, errTypeTimeout, "request timed out")
		return true
	case errors.Is(err, context.Canceled):
		// Client went away; the status is only seen by the logs.
		w.WriteHeader(499)
		return true
	default:
		return false
	}
}

// handleValidate decodes and validates the request body. Valid documents get
// 200, invalid ones 422 and undecodable ones 400.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, errTypeTooLarge,
				fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, errTypeInvalidRequest, "failed to read request body")
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "request"
	}

	res, err := s.service.Validate(r.Context(), imports.Input{
		Source: source,
		Data:   data,
		Format: format,
		Origin: imports.OriginHTTP,
	})
	if err != nil {
		if !writeContextError(w, r, err) {
			writeError(w, r, http.StatusInternalServerError, errTypeInternal, err.Error())
		}
		return
	}

	printer := messages.NewPrinter(s.requestLanguage(r))
	resp := newValidateResponse(res, printer)

	code := http.StatusOK
	switch {
	case res.DecodeError != nil:
		code = http.StatusBadRequest
	case res.Violation != nil:
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, resp)
}

func newValidateResponse(res *imports.Result, p *messages.Printer) *ValidateResponse {
	resp := &ValidateResponse{
		Valid:      res.Valid,
		Source:     res.Source,
		Format:     string(res.Format),
		Version:    res.Version,
		Digest:     res.Digest,
		Size:       res.Size,
		Message:    res.Message(p),
		Kind:       res.Kind(),
		Language:   p.Language(),
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
	}
	if v := res.Violation; v != nil {
		resp.Path = v.Path.String()
		resp.Field = v.Field
		resp.Line = v.Location.Line
		resp.Suggestion = v.Suggestion
	}
	if res.DecodeError == nil {
		summary := res.Summary
		resp.Summary = &summary
	}
	return resp
}

// requestFormat reads ?format= and falls back to the Content-Type.
func requestFormat(r *http.Request) (decoder.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return decoder.ParseFormat(f)
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return decoder.FormatAuto, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return decoder.FormatAuto, nil
	}
	switch {
	case strings.HasSuffix(mediaType, "/xml") || strings.HasSuffix(mediaType, "+xml"):
		return decoder.FormatXML, nil
	case strings.HasSuffix(mediaType, "/json") || strings.HasSuffix(mediaType, "+json"):
		return decoder.FormatJSON, nil
	case strings.HasSuffix(mediaType, "yaml"):
		return decoder.FormatYAML, nil
	default:
		return decoder.FormatAuto, nil
	}
}

// requestLanguage picks ?lang=, then the first Accept-Language tag, then the
// configured default.
func (s *Server) requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		tags, _, err := language.ParseAcceptLanguage(header)
		if err == nil && len(tags) > 0 {
			return tags[0].String()
		}
	}
	return s.locale
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	reports, err := s.storage.Query(r.Context(), q)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	total, err := s.storage.Count(r.Context(), q)
	if err != nil {
		s.storageError(w, r, err)
		return
	}

	if reports == nil {
		reports = []*report.Report{}
	}
	writeJSON(w, http.StatusOK, ReportList{
		Reports: reports,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.storage.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, errTypeNotFound, "report not found")
			return
		}
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleExportReports(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	exporter, err := export.New(format, r.URL.Query().Has("pretty"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	q, err := parseReportQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	reports, err := s.storage.Query(r.Context(), q)
	if err != nil {
		s.storageError(w, r, err)
		return
	}

	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=reports.%s", format))

	if err := exporter.Export(r.Context(), reports, w); err != nil {
		s.logger.ErrorContext(r.Context(), "report export failed", "error", err)
	}
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	if writeContextError(w, r, err) {
		return
	}
	s.logger.ErrorContext(r.Context(), "report storage failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, errTypeInternal, "report storage failed")
}

// requireStorage answers 503 when the server runs without a report store.
func (s *Server) requireStorage(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.storage == nil {
			writeError(w, r, http.StatusServiceUnavailable, errTypeUnavailable, "report storage is disabled")
			return
		}
		h(w, r)
	}
}

// parseReportQuery builds a validated query from URL parameters.
func parseReportQuery(r *http.Request) (*report.Query, error) {
	params := r.URL.Query()
	q := &report.Query{
		Source:      params.Get("source"),
		Origin:      params.Get("origin"),
		Commit:      params.Get("commit"),
		Fingerprint: params.Get("fingerprint"),
		Kind:        params.Get("kind"),
		SortBy:      params.Get("sort_by"),
		SortOrder:   params.Get("sort_order"),
	}

	var err error
	if q.StartTime, err = parseTimeParam(params.Get("start_time")); err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}
	if q.EndTime, err = parseTimeParam(params.Get("end_time")); err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", err)
	}
	if v := params.Get("valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid valid: %w", err)
		}
		q.Valid = &b
	}
	if v := params.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid limit: %w", err)
		}
	}
	if v := params.Get("offset"); v != "" {
		if q.Offset, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid offset: %w", err)
		}
	}

	if err := query.Validate(q); err != nil {
		return nil, err
	}
	query.ApplyDefaults(q)
	return q, nil
}

func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
