package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/report/storage"
	"mercator-hq/importcheck/pkg/telemetry"
	"mercator-hq/importcheck/pkg/telemetry/health"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
)

const (
	validYAML = `zabbix_export:
  version: "2.0"
  date: "2021-06-15T10:30:00Z"
  groups:
    - name: Linux servers
`
	invalidYAML = `zabbix_export:
  version: "2.0"
  images:
    - name: Logo
      imagetype: "1"
      encodedImage: iVBORw0KGgo=
      bogus: x
`
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	service := imports.NewService(imports.WithLogger(quietLogger))
	opts = append([]Option{WithLogger(quietLogger)}, opts...)
	return New(&config.ServerConfig{MaxBodySize: 1024}, service, opts...)
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	tests := []struct {
		name        string
		target      string
		contentType string
		header      map[string]string
		body        string
		wantStatus  int
		wantValid   bool
		wantKind    string
		wantMessage string
		wantLang    string
	}{
		{
			name:        "valid yaml",
			target:      "/api/v1/validate",
			contentType: "application/yaml",
			body:        validYAML,
			wantStatus:  http.StatusOK,
			wantValid:   true,
			wantLang:    "en",
		},
		{
			name:        "unexpected tag",
			target:      "/api/v1/validate?format=yaml",
			body:        invalidYAML,
			wantStatus:  http.StatusUnprocessableEntity,
			wantKind:    "UnexpectedField",
			wantMessage: `Cannot parse XML tag "/images/image(1)": unexpected tag "bogus".`,
			wantLang:    "en",
		},
		{
			name:        "syntax error",
			target:      "/api/v1/validate",
			contentType: "application/json; charset=utf-8",
			body:        `{"zabbix_export": `,
			wantStatus:  http.StatusBadRequest,
			wantKind:    "syntax",
			wantLang:    "en",
		},
		{
			name:       "german from query",
			target:     "/api/v1/validate?lang=de",
			body:       invalidYAML,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "UnexpectedField",
			wantLang:   "de",
		},
		{
			name:       "german from header",
			target:     "/api/v1/validate",
			header:     map[string]string{"Accept-Language": "de-AT, en;q=0.5"},
			body:       invalidYAML,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "UnexpectedField",
			wantLang:   "de",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var resp ValidateResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", resp.Valid, tt.wantValid)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if tt.wantMessage != "" && resp.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", resp.Message, tt.wantMessage)
			}
			if resp.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", resp.Language, tt.wantLang)
			}
			if tt.wantLang == "de" && strings.Contains(resp.Message, "unexpected tag") {
				t.Errorf("Message not localized: %q", resp.Message)
			}
			if resp.Digest == "" {
				t.Error("Digest is empty")
			}
		})
	}
}

func TestValidateEndpointSummary(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate?source=linux.yaml", strings.NewReader(validYAML))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp ValidateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source != "linux.yaml" {
		t.Errorf("Source = %q, want linux.yaml", resp.Source)
	}
	if resp.Format != "yaml" || resp.Version != "2.0" {
		t.Errorf("Format/Version = %q/%q", resp.Format, resp.Version)
	}
	if resp.Summary == nil || resp.Summary.Groups != 1 {
		t.Errorf("Summary = %+v, want 1 group", resp.Summary)
	}
}

func TestValidateEndpointRejects(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantType   string
	}{
		{"too large", http.MethodPost, "/api/v1/validate", strings.Repeat("x", 2048), http.StatusRequestEntityTooLarge, errTypeTooLarge},
		{"unknown format", http.MethodPost, "/api/v1/validate?format=toml", validYAML, http.StatusBadRequest, errTypeInvalidRequest},
		{"wrong method", http.MethodGet, "/api/v1/validate", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantType == "" {
				return
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Error.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", resp.Error.Type, tt.wantType)
			}
			if resp.Error.RequestID == "" {
				t.Error("error response has no request id")
			}
		})
	}
}

func seedReports(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rep := &report.Report{
			ID:          fmt.Sprintf("rep-%d", i),
			Source:      fmt.Sprintf("export-%d.xml", i),
			Format:      "xml",
			Valid:       i%2 == 0,
			Origin:      imports.OriginCLI,
			ValidatedAt: base.Add(time.Duration(i) * time.Minute),
			RecordedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if !rep.Valid {
			rep.ViolationKind = "MissingRequiredField"
			rep.Message = `Cannot parse XML tag "/hosts/host(1)": the tag "host" is missing.`
		}
		if err := store.Store(context.Background(), rep); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	return store
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t, WithStorage(seedReports(t)))
	handler := srv.Handler()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantTotal  int64
		wantCount  int
		wantFirst  string
	}{
		{"all newest first", "/api/v1/reports", http.StatusOK, 5, 5, "rep-4"},
		{"invalid only", "/api/v1/reports?valid=false", http.StatusOK, 2, 2, "rep-3"},
		{"paged ascending", "/api/v1/reports?limit=2&offset=1&sort_order=ASC", http.StatusOK, 5, 2, "rep-1"},
		{"by kind", "/api/v1/reports?kind=MissingRequiredField&limit=1", http.StatusOK, 2, 1, "rep-3"},
		{"bad limit", "/api/v1/reports?limit=-1", http.StatusBadRequest, 0, 0, ""},
		{"bad kind", "/api/v1/reports?kind=Nope", http.StatusBadRequest, 0, 0, ""},
		{"bad time", "/api/v1/reports?start_time=yesterday", http.StatusBadRequest, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var list ReportList
			if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if list.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", list.Total, tt.wantTotal)
			}
			if len(list.Reports) != tt.wantCount {
				t.Fatalf("got %d reports, want %d", len(list.Reports), tt.wantCount)
			}
			if list.Reports[0].ID != tt.wantFirst {
				t.Errorf("first report = %q, want %q", list.Reports[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestGetReport(t *testing.T) {
	srv := newTestServer(t, WithStorage(seedReports(t)))
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/rep-3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var rep report.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rep.ID != "rep-3" || rep.Valid {
		t.Errorf("report = %+v", rep)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing report status = %d, want 404", rec.Code)
	}
}

func TestExportReports(t *testing.T) {
	srv := newTestServer(t, WithStorage(seedReports(t)))
	handler := srv.Handler()

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantType    string
		wantPrefix  string
		wantRecords int
	}{
		{"json", "/api/v1/reports/export", http.StatusOK, "application/json", "[", 5},
		{"csv invalid only", "/api/v1/reports/export?format=csv&valid=false", http.StatusOK, "text/csv", "id,", 3},
		{"unknown format", "/api/v1/reports/export?format=xlsx", http.StatusBadRequest, "application/json", "{", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			body := rec.Body.String()
			if !strings.HasPrefix(body, tt.wantPrefix) {
				t.Errorf("body starts with %.20q, want prefix %q", body, tt.wantPrefix)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if tt.wantType == "text/csv" {
				lines := strings.Split(strings.TrimSpace(body), "\n")
				if len(lines) != tt.wantRecords {
					t.Errorf("got %d csv lines, want %d", len(lines), tt.wantRecords)
				}
				return
			}
			var reports []*report.Report
			if err := json.Unmarshal([]byte(body), &reports); err != nil {
				t.Fatalf("decode export: %v", err)
			}
			if len(reports) != tt.wantRecords {
				t.Errorf("got %d reports, want %d", len(reports), tt.wantRecords)
			}
		})
	}
}

func TestReportsWithoutStorage(t *testing.T) {
	handler := newTestServer(t).Handler()

	for _, target := range []string{"/api/v1/reports", "/api/v1/reports/x", "/api/v1/reports/export"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", target, rec.Code)
		}
	}
}

func TestOperationalEndpoints(t *testing.T) {
	store := seedReports(t)
	checker := health.New(time.Second)
	checker.RegisterCheck("report_store", health.PingCheck(store))
	collector := metrics.NewCollector(config.MetricsConfig{}, nil)

	service := imports.NewService(imports.WithLogger(quietLogger), imports.WithMetrics(collector))
	srv := New(&config.ServerConfig{}, service,
		WithLogger(quietLogger),
		WithStorage(store),
		WithHealth(checker, telemetry.BuildInfo{Version: "1.2.3"}),
		WithMetrics(collector, "/metrics"),
	)
	handler := srv.Handler()

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(validYAML)))

	tests := []struct {
		target   string
		contains string
	}{
		{"/health", `"status"`},
		{"/ready", "report_store"},
		{"/version", "1.2.3"},
		{"/metrics", "importcheck_validations_total"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q:\n%s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(validYAML))
	req.Header.Set(RequestIDHeader, "client-id")
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "client-id" {
		t.Errorf("request id = %q, want client-id", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(validYAML)))
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("generated request id = %q, want a UUID", got)
	}
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := chain(panicking, Recovery(quietLogger), RequestID)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("panic value leaked into the response")
	}
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		writeContextError(w, r, r.Context().Err())
	})
	handler := Timeout(10 * time.Millisecond)(slow)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	service := imports.NewService(imports.WithLogger(quietLogger))
	srv := New(&config.ServerConfig{ListenAddress: "127.0.0.1:0"}, service, WithLogger(quietLogger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer addrCancel()
	addr, err := srv.Addr(addrCtx)
	if err != nil {
		t.Fatalf("Addr: %v", err)
	}

	resp, err := http.Post("http://"+addr.String()+"/api/v1/validate", "application/yaml", strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
