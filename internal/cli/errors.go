package cli

import (
	"errors"
	"strings"
)

// Exit codes returned through ExitError.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// exitError gives err an exit code. Errors raised by cobra itself before a
// command runs are usage errors.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err)
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}
