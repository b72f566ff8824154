package decoder

import (
	"fmt"
	"os"

	"mercator-hq/importcheck/pkg/imports/document"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
)

// RootElement is the wrapper every export document carries.
const RootElement = "zabbix_export"

// Document is a decoded export.
type Document struct {
	Source  string         // File name or caller supplied label
	Format  Format         // Format the document was decoded as
	Version string         // Value of zabbix_export/version, if present
	Size    int            // Size of the raw document in bytes
	Root    *document.Node // Unwrapped zabbix_export mapping
}

// Decoder reads export documents into trees.
type Decoder struct {
	maxFileSize int64  // Maximum document size in bytes (default: 10MB)
	maxDepth    int    // Maximum nesting depth (default: 64)
	format      Format // Forced format, FormatAuto detects
}

// NewDecoder creates a decoder with default configuration.
func NewDecoder() *Decoder {
	return &Decoder{
		maxFileSize: 10 * 1024 * 1024, // 10MB
		maxDepth:    64,
		format:      FormatAuto,
	}
}

// WithMaxFileSize sets the maximum document size.
func (d *Decoder) WithMaxFileSize(size int64) *Decoder {
	d.maxFileSize = size
	return d
}

// WithMaxDepth sets the maximum nesting depth.
func (d *Decoder) WithMaxDepth(depth int) *Decoder {
	d.maxDepth = depth
	return d
}

// WithFormat forces a format instead of detecting it.
func (d *Decoder) WithFormat(format Format) *Decoder {
	d.format = format
	return d
}

// MaxFileSize returns the configured size limit.
func (d *Decoder) MaxFileSize() int64 {
	return d.maxFileSize
}

// Decode reads and decodes the export file at path.
func (d *Decoder) Decode(path string) (*Document, error) {
	data, err := d.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.DecodeBytes(data, path)
}

// ReadFile reads the export file at path, enforcing the size limit before
// any data is read.
func (d *Decoder) ReadFile(path string) ([]byte, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, importErrors.NewDecodeError(importErrors.DecodeErrorIO, path, "Failed to access file", err)
	}

	if fileInfo.Size() > d.maxFileSize {
		return nil, importErrors.NewDecodeError(importErrors.DecodeErrorIO, path,
			fmt.Sprintf("File size %d exceeds maximum %d bytes", fileInfo.Size(), d.maxFileSize), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, importErrors.NewDecodeError(importErrors.DecodeErrorIO, path, "Failed to read file", err)
	}
	return data, nil
}

// DecodeBytes decodes an export held in memory. Source labels the document
// in errors and locations and is used for format detection.
func (d *Decoder) DecodeBytes(data []byte, source string) (*Document, error) {
	if int64(len(data)) > d.maxFileSize {
		return nil, importErrors.NewDecodeError(importErrors.DecodeErrorIO, source,
			fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), d.maxFileSize), nil)
	}

	format := d.format
	if format == FormatAuto {
		format = DetectFormat(source, data)
	}

	var (
		root *document.Value
		err  error
	)
	switch format {
	case FormatXML:
		root, err = decodeXML(data, source, d.maxDepth)
	case FormatJSON:
		root, err = decodeJSON(data, source, d.maxDepth)
	case FormatYAML:
		root, err = decodeYAML(data, source, d.maxDepth)
	default:
		return nil, importErrors.NewDecodeError(importErrors.DecodeErrorFormat, source,
			fmt.Sprintf("Unsupported format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}

	export, err := unwrap(root, source)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Source: source,
		Format: format,
		Size:   len(data),
		Root:   export,
	}
	if version, ok := export.Get("version"); ok && version.IsScalar() {
		doc.Version = version.Scalar
	}

	return doc, nil
}

// unwrap returns the zabbix_export mapping below the document root.
func unwrap(root *document.Value, source string) (*document.Node, error) {
	if !root.IsMapping() {
		e := importErrors.NewDecodeError(importErrors.DecodeErrorStructure, source,
			"Document root must be a mapping", nil)
		e.Suggestion = fmt.Sprintf("Wrap the export in a %q element", RootElement)
		return nil, e
	}

	export, ok := root.Mapping.Get(RootElement)
	if !ok {
		e := importErrors.NewDecodeError(importErrors.DecodeErrorStructure, source,
			fmt.Sprintf("Missing root element %q", RootElement), nil)
		e.Suggestion = fmt.Sprintf("Wrap the export in a %q element", RootElement)
		return nil, e
	}
	if !export.IsMapping() {
		e := importErrors.NewDecodeError(importErrors.DecodeErrorStructure, source,
			fmt.Sprintf("Root element %q must contain tags", RootElement), nil)
		e.Location = export.Location
		return nil, e
	}

	return export.Mapping, nil
}

// depthError reports a document nested deeper than the decoder allows.
func depthError(source string, maxDepth int) error {
	return importErrors.NewDecodeError(importErrors.DecodeErrorStructure, source,
		fmt.Sprintf("Nesting exceeds maximum depth %d", maxDepth), nil)
}
