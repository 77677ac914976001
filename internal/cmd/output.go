package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // data source or load failure
	ExitCommandError = 2 // bad flags, unknown year or line, unreadable config
)

// ExitError carries the exit code a failed command should produce.
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that are not an *ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope for json and yaml output.
type Response struct {
	Status string `json:"status" yaml:"status"`
	Data   any    `json:"data,omitempty" yaml:"data,omitempty"`
}

type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Success writes data as a json or yaml envelope, or calls text for the
// human readable form.
func (formatter *OutputFormatter) Success(data any, text func(io.Writer) error) error {
	response := Response{Status: "ok", Data: data}

	switch formatter.Format {
	case "json":
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(formatter.Writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return text(formatter.Writer)
	}
}

// VerboseLog writes to ErrWriter so that structured output stays parseable.
func (formatter *OutputFormatter) VerboseLog(format string, args ...any) {
	if !formatter.Verbose {
		return
	}
	writer := formatter.ErrWriter
	if writer == nil {
		writer = formatter.Writer
	}
	fmt.Fprintf(writer, format+"\n", args...)
}
