package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/importcheck/pkg/report"
)

// flushEvery is how many streamed rows are buffered between flushes.
const flushEvery = 100

// CSVExporter writes reports as CSV, one row per report.
type CSVExporter struct {
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes reports as CSV.
func (e *CSVExporter) Export(ctx context.Context, reports []*report.Report, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return report.NewExportError("csv", 0, err)
		}
	}

	for i, r := range reports {
		if err := writer.Write(Row(r)); err != nil {
			return report.NewExportError("csv", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return report.NewExportError("csv", len(reports), err)
	}
	return nil
}

// ExportStream writes reports from reportsCh as CSV, flushing periodically.
func (e *CSVExporter) ExportStream(ctx context.Context, reportsCh <-chan *report.Report, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return report.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case r, ok := <-reportsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return report.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(Row(r)); err != nil {
				return report.NewExportError("csv", count, err)
			}
			count++

			if count%flushEvery == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return report.NewExportError("csv", count, err)
				}
			}
		}
	}
}

// Header returns the CSV column names.
func Header() []string {
	return []string{
		"id", "fingerprint", "source", "format", "version", "digest", "size",
		"valid", "violation_kind", "violation_path", "violation_field", "message",
		"groups", "hosts", "templates", "items", "triggers", "graphs", "screens", "images", "discovery_rules",
		"origin", "commit", "validated_at", "recorded_at", "duration_ms",
	}
}

// Row flattens a report into CSV fields in Header order.
func Row(r *report.Report) []string {
	itoa := strconv.Itoa
	s := r.Summary

	return []string{
		r.ID, r.Fingerprint, r.Source, r.Format, r.Version, r.Digest, itoa(r.Size),
		strconv.FormatBool(r.Valid), r.ViolationKind, r.ViolationPath, r.ViolationField, r.Message,
		itoa(s.Groups), itoa(s.Hosts), itoa(s.Templates), itoa(s.Items), itoa(s.Triggers),
		itoa(s.Graphs), itoa(s.Screens), itoa(s.Images), itoa(s.DiscoveryRules),
		r.Origin, r.Commit, formatTime(r.ValidatedAt), formatTime(r.RecordedAt),
		strconv.FormatFloat(float64(r.Duration)/float64(time.Millisecond), 'f', 3, 64),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
