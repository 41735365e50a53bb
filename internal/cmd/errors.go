package cmd

import "fmt"

// ExitCodeError asks main to exit with Code without printing anything
// further; the command has already reported the outcome.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError returns an ExitCodeError for code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}
