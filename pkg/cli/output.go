package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mercator-hq/importcheck/pkg/batch"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/imports/messages"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output, one row per file.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat converts a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unsupported output format %q (want text, json or csv)", s))
	}
}

// FileResult is the printable outcome of one file.
type FileResult struct {
	Source     string           `json:"source"`
	Format     string           `json:"format,omitempty"`
	Version    string           `json:"version,omitempty"`
	Valid      bool             `json:"valid"`
	Kind       string           `json:"kind,omitempty"`
	Message    string           `json:"message,omitempty"`
	Path       string           `json:"path,omitempty"`
	Field      string           `json:"field,omitempty"`
	Line       int              `json:"line,omitempty"`
	Suggestion string           `json:"suggestion,omitempty"`
	Digest     string           `json:"digest,omitempty"`
	Summary    *imports.Summary `json:"summary,omitempty"`
	DurationMS float64          `json:"duration_ms"`
}

// Outcome is the printable outcome of a validate, watch or sync run.
type Outcome struct {
	Results []FileResult `json:"results"`
	Totals  batch.Totals `json:"totals"`
}

// NewFileResult renders res with messages from p.
func NewFileResult(res *imports.Result, p *messages.Printer) FileResult {
	fr := FileResult{
		Source:     res.Source,
		Format:     string(res.Format),
		Version:    res.Version,
		Valid:      res.Valid,
		Kind:       res.Kind(),
		Message:    res.Message(p),
		Digest:     res.Digest,
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
	}

	switch {
	case res.Violation != nil:
		fr.Path = res.Violation.Path.String()
		fr.Field = res.Violation.Field
		fr.Line = res.Violation.Location.Line
		fr.Suggestion = res.Violation.Suggestion
	case res.DecodeError != nil:
		fr.Line = res.DecodeError.Location.Line
		fr.Suggestion = res.DecodeError.Suggestion
	}
	if res.DecodeError == nil {
		summary := res.Summary
		fr.Summary = &summary
	}
	return fr
}

// NewOutcome renders a batch of results.
func NewOutcome(results []*imports.Result, p *messages.Printer) *Outcome {
	o := &Outcome{
		Results: make([]FileResult, 0, len(results)),
		Totals:  batch.Tally(results),
	}
	for _, res := range results {
		o.Results = append(o.Results, NewFileResult(res, p))
	}
	return o
}

// Formatter formats command output.
type Formatter interface {
	Format(o *Outcome) ([]byte, error)
	FormatTo(w io.Writer, o *Outcome) error
}

func formatToBytes(f Formatter, o *Outcome) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TextFormatter prints one line per file and a totals line. Valid files are
// only listed when Verbose is set.
type TextFormatter struct {
	Verbose bool
}

// Format converts o to text.
func (f *TextFormatter) Format(o *Outcome) ([]byte, error) {
	return formatToBytes(f, o)
}

// FormatTo writes o to w as text.
func (f *TextFormatter) FormatTo(w io.Writer, o *Outcome) error {
	for _, r := range o.Results {
		var err error
		switch {
		case r.Valid && f.Verbose:
			_, err = fmt.Fprintf(w, "OK    %s (%s %s, %s)\n", r.Source, r.Format, r.Version, describeSummary(r.Summary))
		case r.Valid:
			continue
		case r.Summary == nil:
			_, err = fmt.Fprintf(w, "ERROR %s: %s\n", r.Source, r.Message)
		default:
			_, err = fmt.Fprintf(w, "FAIL  %s: %s\n", r.Source, r.Message)
		}
		if err != nil {
			return err
		}
		if r.Suggestion != "" {
			if _, err := fmt.Fprintf(w, "      %s\n", r.Suggestion); err != nil {
				return err
			}
		}
	}

	t := o.Totals
	_, err := fmt.Fprintf(w, "%d %s: %d valid, %d invalid, %d unreadable\n",
		t.Files, plural(t.Files, "file", "files"), t.Valid, t.Invalid, t.Errors)
	return err
}

func describeSummary(s *imports.Summary) string {
	if s == nil {
		return "empty"
	}
	parts := make([]string, 0, 4)
	add := func(n int, one, many string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, plural(n, one, many)))
		}
	}
	add(s.Hosts, "host", "hosts")
	add(s.Templates, "template", "templates")
	add(s.Items, "item", "items")
	add(s.Triggers, "trigger", "triggers")
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts o to JSON.
func (f *JSONFormatter) Format(o *Outcome) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(o, "", "  ")
	}
	return json.Marshal(o)
}

// FormatTo writes o to w as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, o *Outcome) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(o)
}

// CSVHeader lists the columns written by CSVFormatter.
var CSVHeader = []string{
	"source", "format", "version", "valid", "kind", "path", "field", "line", "message", "digest", "duration_ms",
}

// CSVFormatter writes one row per file. Totals are not written.
type CSVFormatter struct {
	IncludeHeader bool
}

// Format converts o to CSV.
func (f *CSVFormatter) Format(o *Outcome) ([]byte, error) {
	return formatToBytes(f, o)
}

// FormatTo writes o to w as CSV.
func (f *CSVFormatter) FormatTo(w io.Writer, o *Outcome) error {
	cw := csv.NewWriter(w)

	if f.IncludeHeader {
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
	}

	for _, r := range o.Results {
		line := ""
		if r.Line > 0 {
			line = strconv.Itoa(r.Line)
		}
		row := []string{
			r.Source, r.Format, r.Version, strconv.FormatBool(r.Valid),
			r.Kind, r.Path, r.Field, line, r.Message, r.Digest,
			strconv.FormatFloat(r.DurationMS, 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat, verbose bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{IncludeHeader: true}
	default:
		return &TextFormatter{Verbose: verbose}
	}
}
