package document

import "fmt"

// Location represents the source location of a value in the original export file.
// It lets violations point at file, line and column in addition to the tag path.
type Location struct {
	File   string // Path to the export file
	Line   int    // Line number (1-based, 0 when unknown)
	Column int    // Column number (1-based, 0 when unknown)
}

// String returns a human-readable representation of the location.
// Format: "file:line:column"
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid returns true if the location has valid file and line information.
func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}
