// Package exitcodes defines the process exit codes of the sideload CLI.
package exitcodes

import "errors"

const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates invalid arguments, a missing url or a disallowed scheme
	InvalidArgs = 2

	// PreconditionFailed indicates the install permission is not granted yet.
	// The caller should retry once the user has granted it.
	PreconditionFailed = 3

	// NetworkError indicates a redirect, HTTP status or transport failure
	NetworkError = 4

	// ProcessError indicates the installer could not be started
	ProcessError = 5
)

// CodeForError returns the exit code for an error.
// Errors carrying an explicit code anywhere in their chain win; everything
// else is a GeneralError.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}
	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}
	return GeneralError
}
