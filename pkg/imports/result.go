package imports

import (
	"time"

	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/imports/document"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
	"mercator-hq/importcheck/pkg/imports/messages"
)

// Origins of a validation request.
const (
	OriginCLI   = "cli"
	OriginHTTP  = "http"
	OriginWatch = "watch"
	OriginGit   = "git"
)

// Input describes one document to validate. Either Data or Path is set;
// when Data is nil the file at Path is read.
type Input struct {
	Source string         // Label used in results and logs, defaults to Path
	Path   string         // File to read when Data is nil
	Data   []byte         // Raw document
	Format decoder.Format // Forced format, FormatAuto detects
	Origin string         // cli, http, watch or git
	Commit string         // Git commit the document was read from
}

// Result is the outcome of one validation pass.
type Result struct {
	Source      string
	Format      decoder.Format
	Version     string
	Digest      string // sha256 of the raw document, hex encoded
	Size        int
	Valid       bool
	Violation   *importErrors.Violation
	DecodeError *importErrors.DecodeError
	Summary     Summary
	Origin      string
	Commit      string
	StartedAt   time.Time
	Duration    time.Duration
}

// Err returns the violation or decode error as an error, or nil.
func (r *Result) Err() error {
	switch {
	case r.DecodeError != nil:
		return r.DecodeError
	case r.Violation != nil:
		return r.Violation
	default:
		return nil
	}
}

// Message renders the failure in the printer's language. It returns "" for
// valid documents. Decode errors are not localized.
func (r *Result) Message(p *messages.Printer) string {
	switch {
	case r.DecodeError != nil:
		return r.DecodeError.Error()
	case r.Violation != nil:
		return r.Violation.Message(p)
	default:
		return ""
	}
}

// Kind returns the violation kind or decode error type, or "".
func (r *Result) Kind() string {
	switch {
	case r.DecodeError != nil:
		return string(r.DecodeError.Type)
	case r.Violation != nil:
		return string(r.Violation.Kind)
	default:
		return ""
	}
}

// Summary counts the main objects of an export.
type Summary struct {
	Groups         int `json:"groups"`
	Hosts          int `json:"hosts"`
	Templates      int `json:"templates"`
	Items          int `json:"items"`
	Triggers       int `json:"triggers"`
	Graphs         int `json:"graphs"`
	Screens        int `json:"screens"`
	Images         int `json:"images"`
	DiscoveryRules int `json:"discovery_rules"`
}

// Summarize counts the objects of an unwrapped export tree. Groups, hosts,
// templates and images only exist at the top level; the other collections
// are counted wherever they appear, so template items count as items.
func Summarize(root *document.Node) Summary {
	var s Summary

	_ = document.Walk(root, func(path document.Path, field string, v *document.Value) error {
		if !v.IsCollection() {
			return nil
		}
		n := len(v.Elements())
		topLevel := path == document.Root.Field(field)

		switch field {
		case "groups":
			if topLevel {
				s.Groups += n
			}
		case "hosts":
			if topLevel {
				s.Hosts += n
			}
		case "templates":
			if topLevel {
				s.Templates += n
			}
		case "images":
			if topLevel {
				s.Images += n
			}
		case "items":
			s.Items += n
		case "triggers":
			s.Triggers += n
		case "graphs":
			s.Graphs += n
		case "screens":
			s.Screens += n
		case "discovery_rules":
			s.DiscoveryRules += n
		}
		return nil
	})

	return s
}
