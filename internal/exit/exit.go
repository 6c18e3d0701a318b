package exit

import (
	"fmt"
	"io"
	"os"
)

// Result carries a termination message, its destination and the process
// exit code.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the result message to its destination.
func (r *Result) Print() {
	fmt.Fprint(r.Output, r.Message)
}

// Success is a zero exit code result printed to stdout.
func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: 0,
		Message:  message,
	}
}

// Error is an exit code 1 result printed to stderr.
func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: 1,
		Message:  message,
	}
}

// Errorf is Error with formatting.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}
