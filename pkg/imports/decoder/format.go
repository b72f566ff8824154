package decoder

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the serialization of an export document.
type Format string

const (
	FormatAuto Format = ""
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatXML, FormatJSON, FormatYAML}

// ParseFormat converts a user supplied format name. The empty string and
// "auto" select detection.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, fmt.Errorf("unsupported format %q (want xml, json or yaml)", s)
	}
}

// FormatFromExtension returns the format implied by a file name, or
// FormatAuto when the extension is unknown.
func FormatFromExtension(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml":
		return FormatXML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks a format from the source name, falling back to the
// first significant byte of data.
func DetectFormat(source string, data []byte) Format {
	if f := FormatFromExtension(source); f != FormatAuto {
		return f
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 {
		return FormatYAML
	}
	switch trimmed[0] {
	case '<':
		return FormatXML
	case '{', '[':
		return FormatJSON
	default:
		return FormatYAML
	}
}

// IsSupportedFile returns true if the file name has a known export extension.
func IsSupportedFile(name string) bool {
	return FormatFromExtension(name) != FormatAuto
}
