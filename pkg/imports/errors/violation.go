package errors

import (
	"mercator-hq/importcheck/pkg/imports/document"
	"mercator-hq/importcheck/pkg/imports/messages"
)

// Kind categorizes a validation violation.
type Kind string

const (
	KindMissingRequiredField Kind = "MissingRequiredField" // Required tag absent
	KindTypeMismatch         Kind = "TypeMismatch"         // Collection where a string is expected
	KindUnexpectedField      Kind = "UnexpectedField"      // Tag not declared for the node type
	KindMalformedCollection  Kind = "MalformedCollection"  // "an array is expected"
	KindInvalidDateTime      Kind = "InvalidDateTime"      // Export date does not match YYYY-MM-DDThh:mm:ssZ
)

// Violation is the single error produced by a failed validation pass.
type Violation struct {
	Kind       Kind
	Path       document.Path     // Node the violation is attributed to
	Field      string            // Tag involved, empty for shape and date violations
	Location   document.Location // Source location when the decoder recorded one
	Suggestion string            // Suggested fix (optional)
}

var english = messages.NewPrinter("en")

// Error implements the error interface with the English message.
func (v *Violation) Error() string {
	return v.Message(english)
}

// Reason renders the reason part of the message, without path or trailing period.
func (v *Violation) Reason(p *messages.Printer) string {
	switch v.Kind {
	case KindMissingRequiredField:
		return p.Sprintf(messages.TagMissing, v.Field)
	case KindTypeMismatch:
		return p.Sprintf(messages.StringExpected, v.Field)
	case KindUnexpectedField:
		return p.Sprintf(messages.UnexpectedTag, v.Field)
	case KindMalformedCollection:
		return p.Sprintf(messages.ArrayExpected)
	default:
		return p.Sprintf(messages.InvalidDateTime)
	}
}

// Message renders the full message with p.
// Date violations use the fixed date format message; every other kind is
// wrapped as `Cannot parse XML tag "<path>": <reason>.`
func (v *Violation) Message(p *messages.Printer) string {
	if v.Kind == KindInvalidDateTime {
		return v.Reason(p)
	}
	return p.Sprintf(messages.CannotParseTag, v.Path.String(), v.Reason(p))
}

// NewMissingField creates a MissingRequiredField violation.
func NewMissingField(path document.Path, field string) *Violation {
	return &Violation{Kind: KindMissingRequiredField, Path: path, Field: field}
}

// NewTypeMismatch creates a TypeMismatch violation.
func NewTypeMismatch(path document.Path, field string) *Violation {
	return &Violation{Kind: KindTypeMismatch, Path: path, Field: field}
}

// NewUnexpectedField creates an UnexpectedField violation.
func NewUnexpectedField(path document.Path, field string) *Violation {
	return &Violation{Kind: KindUnexpectedField, Path: path, Field: field}
}

// NewMalformedCollection creates a MalformedCollection violation.
func NewMalformedCollection(path document.Path) *Violation {
	return &Violation{Kind: KindMalformedCollection, Path: path}
}

// NewInvalidDateTime creates an InvalidDateTime violation.
func NewInvalidDateTime(path document.Path) *Violation {
	return &Violation{Kind: KindInvalidDateTime, Path: path, Field: "date"}
}

// WithLocation sets the source location and returns the violation.
func (v *Violation) WithLocation(loc document.Location) *Violation {
	v.Location = loc
	return v
}

// WithSuggestion sets the suggestion and returns the violation.
func (v *Violation) WithSuggestion(s string) *Violation {
	v.Suggestion = s
	return v
}
