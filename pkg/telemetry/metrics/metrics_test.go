package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:   config.Bool(true),
		Namespace: "test",
	}
}

func TestCollector_RecordValidation(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	tests := []struct {
		name   string
		format string
		result string
		kind   string
	}{
		{name: "valid", format: "xml", result: ResultValid},
		{name: "missing field", format: "xml", result: ResultInvalid, kind: "MissingRequiredField"},
		{name: "decode error", format: "json", result: ResultError, kind: "syntax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordValidation(tt.format, tt.result, tt.kind, 2048, 3*time.Millisecond)
		})
	}

	if got := testutil.ToFloat64(collector.validation.validationsTotal.WithLabelValues(ResultValid, "none")); got != 1 {
		t.Errorf("valid count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.validation.validationsTotal.WithLabelValues(ResultInvalid, "MissingRequiredField")); got != 1 {
		t.Errorf("invalid count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.validation.validationDuration); got != 2 {
		t.Errorf("duration series = %d, want 2 (xml, json)", got)
	}
}

func TestCollector_StorageAndWatch(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordReportStored("sqlite")
	collector.RecordReportStored("sqlite")
	collector.RecordReportsPruned("age", 5)
	collector.RecordReportsPruned("count", 0)
	collector.RecordWatchEvent("write")

	if got := testutil.ToFloat64(collector.storage.reportsStored.WithLabelValues("sqlite")); got != 2 {
		t.Errorf("reports stored = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.storage.reportsPruned.WithLabelValues("age")); got != 5 {
		t.Errorf("reports pruned = %v, want 5", got)
	}
	if got := testutil.CollectAndCount(collector.storage.reportsPruned); got != 1 {
		t.Errorf("zero prune should not create a series, got %d series", got)
	}
	if got := testutil.ToFloat64(collector.storage.watchEvents.WithLabelValues("write")); got != 1 {
		t.Errorf("watch events = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = config.Bool(false)
	collector := NewCollector(cfg, nil)

	collector.RecordValidation("xml", ResultValid, "", 10, time.Millisecond)
	collector.RecordReportStored("memory")

	if got := testutil.CollectAndCount(collector.validation.validationsTotal); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}

	var nilCollector *Collector
	nilCollector.RecordValidation("xml", ResultValid, "", 10, time.Millisecond)
	nilCollector.RecordWatchEvent("create")
	if nilCollector.Enabled() {
		t.Error("nil collector reports enabled")
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(config.MetricsConfig{}, nil)
	collector.RecordValidation("yaml", ResultInvalid, "UnexpectedField", 512, time.Millisecond)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	for _, want := range []string{
		`importcheck_validations_total{kind="UnexpectedField",result="invalid"} 1`,
		"importcheck_validation_duration_seconds_bucket",
		"importcheck_documents_bytes_count",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
