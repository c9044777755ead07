package comm

import (
	"errors"
	"fmt"

	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

var (
	// ErrClosed indicates the transport has been closed, either explicitly or
	// after a fatal error. The caller must reconnect.
	ErrClosed = errors.New("transport closed")
	// ErrTimeout indicates no complete frame arrived in time.
	ErrTimeout = errors.New("read timeout")
)

// ExhaustedError indicates no channel is available in the pool.
type ExhaustedError struct {
	Size int
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d channels are in use", e.Size)
}

// ProtocolError is raised when the instrument replies on an unexpected
// channel or with a non-zero status.
type ProtocolError struct {
	Device string
	// Expected is the channel the request was sent on.
	Expected byte
	// Got is the request channel recovered from the reply.
	Got byte
	// Status is the decoded hardware status code.
	Status   int
	Category string
}

// ChannelMismatch indicates the reply came back on a different channel.
func (e *ProtocolError) ChannelMismatch() bool {
	return e.Expected != e.Got
}

// Error implements error.
func (e *ProtocolError) Error() string {
	if e.ChannelMismatch() && !frame.KnownErrorCode(e.Status) {
		return fmt.Sprintf("%s: invalid response channel: want %q, got %q (status %d)",
			e.Device, e.Expected, e.Got, e.Status)
	}
	return fmt.Sprintf("%s: error %d: %s", e.Device, e.Status, e.Category)
}

func newProtocolError(resp *frame.Response, expected byte, offset int) *ProtocolError {
	e := &ProtocolError{
		Device:   resp.Device,
		Expected: expected,
		Got:      resp.RequestChannel(offset),
		Status:   resp.StatusCode(),
	}
	switch {
	case frame.KnownErrorCode(e.Status):
		e.Category = frame.ErrorCategory(e.Status)
	case e.ChannelMismatch():
		e.Category = "channel mismatch"
	default:
		e.Category = frame.UnknownFault
	}
	return e
}

// StatusCode extracts the hardware status code from err.
func StatusCode(err error) (int, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Status, true
	}
	return 0, false
}

// IsFatal indicates err leaves the connection unusable.
// Errors from other packages opt in by implementing Fatal() bool.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrTimeout) {
		return true
	}
	var (
		pe *ProtocolError
		ee *ExhaustedError
		fe *frame.FrameError
		f  interface{ Fatal() bool }
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &ee), errors.As(err, &fe):
		return true
	case errors.As(err, &f):
		return f.Fatal()
	}
	return false
}
