// Package mergeerror defines the failure taxonomy of a merge run. Fatal
// failures carry a stable code so the invoking shell can react without
// parsing messages; row-level problems are recovered and only counted.
package mergeerror

import (
	"errors"
	"fmt"
)

// Code identifies a class of fatal failure.
type Code string

const (
	CodeInput    Code = "input_error"
	CodeConfig   Code = "config_error"
	CodeWrite    Code = "write_error"
	CodeInternal Code = "internal_error"
)

// ErrNoInputFiles is wrapped by the InputError returned when a period has no export files.
var ErrNoInputFiles = errors.New("no input files found")

// InputError reports an unreadable period folder or export file.
type InputError struct {
	Path string
	Msg  string
	Err  error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input error for '%s': %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("input error for '%s': %s", e.Path, e.Msg)
}

func (e *InputError) Unwrap() error { return e.Err }

// ConfigError reports a malformed mapping, ignore, rules or alias document.
// Document names the offending file.
type ConfigError struct {
	Document string
	Reason   string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration document '%s': %s: %v", e.Document, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration document '%s': %s", e.Document, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WriteError reports a failure to produce an output artifact.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write '%s': %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// RowError describes a skipped input row. It never fails a run.
type RowError struct {
	File   string
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s row %d: %s %s='%s'", e.File, e.Row, e.Reason, e.Field, e.Value)
	}
	return fmt.Sprintf("%s row %d: %s", e.File, e.Row, e.Reason)
}

// CodeOf returns the failure code for err, or CodeInternal when err is not typed.
func CodeOf(err error) Code {
	var (
		inputErr  *InputError
		configErr *ConfigError
		writeErr  *WriteError
	)
	switch {
	case errors.As(err, &inputErr):
		return CodeInput
	case errors.As(err, &configErr):
		return CodeConfig
	case errors.As(err, &writeErr):
		return CodeWrite
	default:
		return CodeInternal
	}
}

// ExitCode maps err to the process exit status. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeInput:
		return 2
	case CodeConfig:
		return 3
	case CodeWrite:
		return 4
	default:
		return 1
	}
}
