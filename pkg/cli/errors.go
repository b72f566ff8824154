package cli

import (
	"errors"
	"fmt"
)

// Exit codes of the importcheck binary.
const (
	ExitOK      = 0 // Every file is valid
	ExitInvalid = 1 // At least one file failed validation or could not be decoded
	ExitUsage   = 2 // Bad flags, configuration or a failed command
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationFailedError reports that a run finished but not every file was
// valid. The details have already been printed.
type ValidationFailedError struct {
	Invalid int
	Errors  int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%d invalid, %d unreadable", e.Invalid, e.Errors)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var failed *ValidationFailedError
	if errors.As(err, &failed) {
		return ExitInvalid
	}
	return ExitUsage
}
