package frame

import "fmt"

// FrameError indicates a malformed frame.
type FrameError struct {
	Data   []byte
	Reason string
}

// Error implements error.
func (e *FrameError) Error() string {
	if len(e.Data) == 0 {
		return "bad frame: " + e.Reason
	}
	return fmt.Sprintf("bad frame %q: %s", e.Data, e.Reason)
}
