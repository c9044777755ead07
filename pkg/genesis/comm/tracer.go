package comm

import (
	"github.com/golang/glog"
)

// Direction of a traced frame.
type Direction int

// Directions.
const (
	Outgoing Direction = iota
	Incoming
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Outgoing {
		return ">"
	}
	return "-"
}

// Tracer observes frames on the wire.
type Tracer interface {
	TraceFrame(Direction, []byte)
}

// TraceFunc is func form of Tracer.
type TraceFunc func(Direction, []byte)

// TraceFrame implements Tracer.
func (f TraceFunc) TraceFrame(dir Direction, data []byte) {
	f(dir, data)
}

// LogTracer logs frames with glog verbosity 3.
type LogTracer struct{}

// TraceFrame implements Tracer.
func (LogTracer) TraceFrame(dir Direction, data []byte) {
	if glog.V(3) {
		glog.Infof("%s %q", dir, data)
	}
}

// MultiTracer fans out to multiple tracers.
type MultiTracer []Tracer

// TraceFrame implements Tracer.
func (m MultiTracer) TraceFrame(dir Direction, data []byte) {
	for _, t := range m {
		t.TraceFrame(dir, data)
	}
}
