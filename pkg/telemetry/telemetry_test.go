package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"mercator-hq/importcheck/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := config.Default().Telemetry
	buf := &bytes.Buffer{}

	tel, err := New(context.Background(), cfg, BuildInfo{Version: "1.0.0"}, WithLogWriter(buf), WithLogLevel("debug"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer tel.Shutdown(context.Background())

	if tel.Tracer.Enabled() {
		t.Error("tracing should be disabled by default")
	}
	if !tel.Metrics.Enabled() {
		t.Error("metrics should be enabled by default")
	}

	tel.Logger.Debug("starting", "ipmi_password", "secret")
	out := buf.String()
	if !strings.Contains(out, "starting") {
		t.Errorf("debug override not applied: %q", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("password leaked: %q", out)
	}
}

func TestNew_InvalidLogLevel(t *testing.T) {
	cfg := config.Default().Telemetry
	if _, err := New(context.Background(), cfg, BuildInfo{}, WithLogLevel("loud")); err == nil {
		t.Error("expected error for invalid log level")
	}
}
