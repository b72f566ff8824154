package errors

import (
	"fmt"
	"strings"

	"mercator-hq/importcheck/pkg/imports/document"
)

// DecodeErrorType categorizes problems found before validation starts.
type DecodeErrorType string

const (
	DecodeErrorIO        DecodeErrorType = "io"        // File cannot be read or is too large
	DecodeErrorSyntax    DecodeErrorType = "syntax"    // XML, JSON or YAML syntax error
	DecodeErrorStructure DecodeErrorType = "structure" // Missing or malformed zabbix_export root
	DecodeErrorFormat    DecodeErrorType = "format"    // Unsupported document format
)

// DecodeError reports a document that could not be turned into an export tree.
type DecodeError struct {
	Type       DecodeErrorType
	Message    string
	Location   document.Location
	Suggestion string
	Cause      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Location.String()))
	}

	return sb.String()
}

// Unwrap returns the underlying cause error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(errType DecodeErrorType, file, message string, cause error) *DecodeError {
	return &DecodeError{
		Type:     errType,
		Message:  message,
		Location: document.Location{File: file},
		Cause:    cause,
	}
}
