package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/atlaslabs/atlasflow/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (chain broken, invalid state, etc.)
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the standard JSON envelope for CLI output.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error structure for CLI responses.
type ResponseError struct {
	Code    string `json:"code"` // engine error code, e.g. "NOT_FOUND"
	Message string `json:"message"`
}

// Formatter handles JSON vs text output for CLI commands.
type Formatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// Success outputs a successful result in the configured format.
// In text mode, data is rendered with its String method or %v.
func (f *Formatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Fail outputs an orchestration error in the configured format and converts
// it to an ExitError with the right exit code.
func (f *Formatter) Fail(err error) error {
	code := "ERROR"
	var oe *engine.Error
	if errors.As(err, &oe) {
		code = string(oe.Code)
	}

	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: err.Error()},
		})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %v\n", code, err)
	}

	return &ExitError{Code: exitCodeFor(err), Message: err.Error(), Err: err}
}

// exitCodeFor maps orchestration errors to exit codes: caller mistakes
// (missing flow, bad input) are command errors; state/integrity failures are
// operation failures.
func exitCodeFor(err error) int {
	switch {
	case engine.IsNotFound(err), engine.IsValidation(err):
		return ExitCommandError
	default:
		return ExitFailure
	}
}
