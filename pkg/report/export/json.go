package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/importcheck/pkg/report"
)

// JSONExporter writes reports as a JSON array.
type JSONExporter struct {
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes reports as one JSON array, "[]" when empty.
func (e *JSONExporter) Export(ctx context.Context, reports []*report.Report, w io.Writer) error {
	if reports == nil {
		reports = []*report.Report{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(reports); err != nil {
		return report.NewExportError("json", 0, err)
	}
	return nil
}

// ExportStream writes reports from reportsCh as a JSON array without
// holding them all in memory. It returns when the channel is closed.
func (e *JSONExporter) ExportStream(ctx context.Context, reportsCh <-chan *report.Report, w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return report.NewExportError("json", 0, err)
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case r, ok := <-reportsCh:
			if !ok {
				closing := "]\n"
				if e.Pretty && count > 0 {
					closing = "\n]\n"
				}
				if _, err := io.WriteString(w, closing); err != nil {
					return report.NewExportError("json", count, err)
				}
				return nil
			}

			sep := ","
			if count == 0 {
				sep = ""
			}
			if e.Pretty {
				sep += "\n  "
			}
			if _, err := io.WriteString(w, sep); err != nil {
				return report.NewExportError("json", count, err)
			}

			data, err := e.marshal(r)
			if err != nil {
				return report.NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return report.NewExportError("json", count, err)
			}
			count++
		}
	}
}

func (e *JSONExporter) marshal(r *report.Report) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(r, "  ", "  ")
	}
	return json.Marshal(r)
}
