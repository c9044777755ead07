package comm

import (
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// MaxDrain bounds the bytes Drain reads from a chattering line.
const MaxDrain = 4096

// FrameReader reads complete frames from a byte stream.
type FrameReader struct {
	Reader io.Reader
	// Timeout bounds the wait for a complete frame, 0 waits forever.
	// The underlying reader is expected to return periodically (e.g. a serial
	// port with read timeout) so the deadline can be checked.
	Timeout time.Duration

	parser  frame.Parser
	buf     [64]byte
	pending []byte
}

// NewFrameReader creates a FrameReader.
func NewFrameReader(r io.Reader, timeout time.Duration) *FrameReader {
	return &FrameReader{Reader: r, Timeout: timeout}
}

// ReadFrame blocks until a complete frame is received.
func (r *FrameReader) ReadFrame() ([]byte, error) {
	var deadline time.Time
	if r.Timeout > 0 {
		deadline = time.Now().Add(r.Timeout)
	}
	for {
		for len(r.pending) > 0 {
			b := r.pending[0]
			r.pending = r.pending[1:]
			if pr := r.parser.Parse(b); pr.Frame != nil {
				if pr.Dropped > 0 {
					glog.Warningf("skipped %d bytes before frame", pr.Dropped)
				}
				return pr.Frame, nil
			}
		}
		n, err := r.Reader.Read(r.buf[:])
		if n > 0 {
			r.pending = r.buf[:n]
			continue
		}
		if err != nil && !os.IsTimeout(err) {
			return nil, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}
}

// Discard drops buffered bytes and partially parsed frame.
// It returns the number of bytes dropped.
func (r *FrameReader) Discard() int {
	n := len(r.pending)
	if r.parser.Receiving() {
		n++
	}
	r.pending = nil
	r.parser.Reset()
	return n
}

// Drain discards like Discard, then reads and drops input already waiting
// on the line until a read returns nothing. Only input is affected, bytes
// written but not yet transmitted still go out.
func (r *FrameReader) Drain() int {
	n := r.Discard()
	for n < MaxDrain {
		c, err := r.Reader.Read(r.buf[:])
		n += c
		if c == 0 || err != nil {
			break
		}
	}
	return n
}
