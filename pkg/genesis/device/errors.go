package device

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError indicates an argument outside of the contract.
// No frame is sent when it's returned, but it ends the session: callers are
// expected to close the transport (see comm.Transport.Fail).
type ValidationError struct {
	Field  string
	Value  float64
	Min    int
	Max    int
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	val := strconv.FormatFloat(e.Value, 'f', -1, 64)
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s %s: %s", e.Field, val, e.Reason)
	}
	return fmt.Sprintf("invalid %s %s: must be within the range %d to %d", e.Field, val, e.Min, e.Max)
}

// Fatal marks the error as fatal to the connection.
func (e *ValidationError) Fatal() bool { return true }

// SetupError indicates an unexpected reply while setting up a device.
type SetupError struct {
	What    string
	Content string
}

// Error implements error.
func (e *SetupError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.What, e.Content)
}

// Fatal marks the error as fatal to the connection.
func (e *SetupError) Fatal() bool { return true }

// ReportError indicates a position report could not be parsed.
type ReportError struct {
	Instruction string
	Content     string
}

// Error implements error.
func (e *ReportError) Error() string {
	return fmt.Sprintf("%s: unexpected report %q", e.Instruction, e.Content)
}

// ErrNotSetup indicates a device is used before Setup.
var ErrNotSetup = errors.New("device not set up")

// IsValidationError indicates err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
