package errors

import (
	"fmt"
	"strings"
)

// ErrorList collects the violations of several independent validation passes.
// Each pass still stops at its first violation.
type ErrorList struct {
	Errors []*Violation
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Violation, 0),
	}
}

// Add appends a violation to the list. Nil violations are ignored.
func (el *ErrorList) Add(v *Violation) {
	if v == nil {
		return
	}
	el.Errors = append(el.Errors, v)
}

// HasErrors returns true if the list contains any violation.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of violations in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d violation(s):\n", el.Count()))

	for _, v := range el.Errors {
		if v.Location.File != "" {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", v.Location.File, v.Error()))
		} else {
			sb.WriteString(fmt.Sprintf("  %s\n", v.Error()))
		}
	}

	return sb.String()
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByKind returns all violations of the given kind.
func (el *ErrorList) ByKind(kind Kind) []*Violation {
	var result []*Violation
	for _, v := range el.Errors {
		if v.Kind == kind {
			result = append(result, v)
		}
	}
	return result
}

// HasKind returns true if the list contains at least one violation of kind.
func (el *ErrorList) HasKind(kind Kind) bool {
	return len(el.ByKind(kind)) > 0
}
