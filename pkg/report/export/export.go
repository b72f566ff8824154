package export

import (
	"fmt"
	"strings"

	"mercator-hq/importcheck/pkg/report"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "csv"}

// New returns the exporter for format. JSON output is indented when pretty
// is set; CSV output always has a header row.
func New(format string, pretty bool) (report.Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONExporter(pretty), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, report.NewExportError(format, 0,
			fmt.Errorf("unsupported format (want one of %s)", strings.Join(Formats, ", ")))
	}
}
