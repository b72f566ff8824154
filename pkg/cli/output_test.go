package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/messages"
)

func validateAll(t *testing.T, docs map[string]string, order ...string) []*imports.Result {
	t.Helper()
	service := imports.NewService(imports.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	results := make([]*imports.Result, 0, len(order))
	for _, name := range order {
		res, err := service.Validate(context.Background(), imports.Input{Source: name, Data: []byte(docs[name])})
		if err != nil {
			t.Fatalf("Validate(%s): %v", name, err)
		}
		results = append(results, res)
	}
	return results
}

func sampleOutcome(t *testing.T) *Outcome {
	t.Helper()
	docs := map[string]string{
		"ok.yaml":     "zabbix_export:\n  version: \"2.0\"\n  groups:\n    - name: Linux servers\n",
		"bad.yaml":    "zabbix_export:\n  version: \"2.0\"\n  groups:\n    - nam: Linux servers\n",
		"broken.json": `{"zabbix_export": [`,
	}
	results := validateAll(t, docs, "ok.yaml", "bad.yaml", "broken.json")
	return NewOutcome(results, messages.NewPrinter("en"))
}

func TestNewOutcome(t *testing.T) {
	o := sampleOutcome(t)

	if o.Totals.Files != 3 || o.Totals.Valid != 1 || o.Totals.Invalid != 1 || o.Totals.Errors != 1 {
		t.Fatalf("Totals = %+v", o.Totals)
	}

	tests := []struct {
		source      string
		valid       bool
		kind        string
		path        string
		field       string
		wantSummary bool
	}{
		{"ok.yaml", true, "", "", "", true},
		{"bad.yaml", false, "MissingRequiredField", "/groups/group(1)", "name", true},
		{"broken.json", false, "syntax", "", "", false},
	}

	for i, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			r := o.Results[i]
			if r.Source != tt.source || r.Valid != tt.valid || r.Kind != tt.kind {
				t.Errorf("got %s valid=%v kind=%q", r.Source, r.Valid, r.Kind)
			}
			if r.Path != tt.path || r.Field != tt.field {
				t.Errorf("path/field = %q/%q, want %q/%q", r.Path, r.Field, tt.path, tt.field)
			}
			if (r.Summary != nil) != tt.wantSummary {
				t.Errorf("Summary = %+v, want present=%v", r.Summary, tt.wantSummary)
			}
			if !tt.valid && r.Message == "" {
				t.Error("Message is empty for a failed file")
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	o := sampleOutcome(t)

	tests := []struct {
		name    string
		verbose bool
		want    []string
		notWant []string
	}{
		{
			name: "failures only",
			want: []string{
				`FAIL  bad.yaml: Cannot parse XML tag "/groups/group(1)": the tag "name" is missing.`,
				"ERROR broken.json:",
				"3 files: 1 valid, 1 invalid, 1 unreadable",
			},
			notWant: []string{"OK    ok.yaml"},
		},
		{
			name:    "verbose",
			verbose: true,
			want:    []string{"OK    ok.yaml (yaml 2.0, empty)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TextFormatter{Verbose: tt.verbose}).Format(o)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(out), w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(string(out), w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	o := sampleOutcome(t)

	for _, indent := range []bool{false, true} {
		t.Run(fmt.Sprintf("indent=%v", indent), func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONFormatter{Indent: indent}).FormatTo(&buf, o); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}

			var got Outcome
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if got.Totals != o.Totals {
				t.Errorf("Totals = %+v, want %+v", got.Totals, o.Totals)
			}
			if len(got.Results) != 3 || got.Results[1].Field != "name" {
				t.Errorf("Results = %+v", got.Results)
			}
		})
	}
}

func TestCSVFormatter(t *testing.T) {
	o := sampleOutcome(t)

	tests := []struct {
		name     string
		header   bool
		wantRows int
	}{
		{"with header", true, 4},
		{"without header", false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&CSVFormatter{IncludeHeader: tt.header}).Format(o)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
			if err != nil {
				t.Fatalf("invalid CSV: %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Fatalf("got %d rows, want %d", len(rows), tt.wantRows)
			}
			for _, row := range rows {
				if len(row) != len(CSVHeader) {
					t.Errorf("row has %d columns, want %d", len(row), len(CSVHeader))
				}
			}
			if tt.header && rows[0][0] != "source" {
				t.Errorf("header = %v", rows[0])
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{"text formatter", FormatText, "*cli.TextFormatter"},
		{"json formatter", FormatJSON, "*cli.JSONFormatter"},
		{"csv formatter", FormatCSV, "*cli.CSVFormatter"},
		{"default to text", "unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fmt.Sprintf("%T", NewFormatter(tt.format, false))
			if got != tt.want {
				t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}
