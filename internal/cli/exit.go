package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/soapywu/pbxedit/internal/config"
	"github.com/soapywu/pbxedit/manifest"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the edit itself failed
	ExitCommandError = 2 // bad input: unreadable project, invalid plan, bad flags
)

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

// GetExitCode extracts the exit code from an error. Missing, unreadable or
// malformed projects and invalid plans are command errors; anything else is
// a failure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return ExitCommandError
	}
	if errors.Is(err, manifest.ErrMalformedManifest) || errors.Is(err, config.ErrInvalidPlan) {
		return ExitCommandError
	}
	return ExitFailure
}
