package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Search or scenario failure
	ExitCommandError = 2 // Command error (bad flags, unknown session, database errors)
)

// Error codes reported in JSON error responses for failures that are not
// engine runtime errors.
const (
	CodeFailure      = "E_FAILURE"
	CodeCommandError = "E_COMMAND"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported marks errors whose command already wrote its own
	// error output.
	Reported bool
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// isReported reports whether err was already written by its command.
func isReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // text-mode errors (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // engine code or E_FAILURE / E_COMMAND
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs a failed command in the configured format. Engine runtime
// errors keep their code and node; other errors are classified by exit code.
func (f *OutputFormatter) Error(err error) error {
	cliErr := describeError(err)
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  cliErr,
		})
	}

	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
	if f.Verbose && cliErr.Details != nil {
		fmt.Fprintf(w, "Details: %v\n", cliErr.Details)
	}
	return nil
}

func describeError(err error) *CLIError {
	out := &CLIError{Code: CodeFailure, Message: err.Error()}
	if GetExitCode(err) == ExitCommandError {
		out.Code = CodeCommandError
	}

	var re *engine.RuntimeError
	if errors.As(err, &re) {
		out.Code = string(re.Code)
		details := map[string]any{}
		if re.NodeID >= 0 {
			details["node"] = re.NodeID
		}
		for k, v := range re.Details {
			details[k] = v
		}
		if len(details) > 0 {
			out.Details = details
		}
	}
	return out
}

// printer formats counters with digit grouping in text output.
var printer = message.NewPrinter(language.English)

// count renders n with thousands separators.
func count(n int) string {
	return printer.Sprintf("%d", n)
}

// urgency renders an urgency, naming the forced values.
func urgency(u float64) string {
	switch {
	case u >= ir.Sentinel:
		return "+sentinel"
	case u <= -ir.Sentinel:
		return "-sentinel"
	}
	return printer.Sprintf("%.2f", u)
}
