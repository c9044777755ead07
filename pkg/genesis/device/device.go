// Package device provides the pieces shared by the arms of the instrument.
package device

import (
	"math"
	"strconv"
	"strings"

	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// Sender performs solo exchanges.
type Sender interface {
	Send(frame.Instruction) (*frame.Response, error)
}

// GroupSender performs solo and group exchanges.
type GroupSender interface {
	Sender
	SendGroup([]frame.Instruction, byte) ([]*frame.Response, error)
}

// MinY is the lowest accepted Y position, the axis tolerates a small overshoot.
const MinY = -800

// MaxSpeed is the upper limit of axis speed in 0.1 mm/s.
const MaxSpeed = 4000

// Range is the travel of an axis reported by the instrument.
type Range struct {
	Min int
	Max int
}

// Check validates v against the range.
func (r Range) Check(field string, v int) error {
	if v < r.Min || v > r.Max {
		return &ValidationError{Field: field, Value: float64(v), Min: r.Min, Max: r.Max}
	}
	return nil
}

// Invert converts a logical Z position to the raw value where zero is the
// fully retracted position.
func (r Range) Invert(v int) int {
	return r.Max - v
}

// Integral converts an integral floating point value to int.
func Integral(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, &ValidationError{Field: field, Value: v, Reason: "must be an integer"}
	}
	return int(v), nil
}

// ParseInts parses the comma separated integers of a response content.
func ParseInts(content string) ([]int, error) {
	fields := strings.Split(content, ",")
	vals := make([]int, len(fields))
	for n, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		vals[n] = v
	}
	return vals, nil
}

// QueryRange sends a report instruction and parses the first value of the
// response as the maximum of an axis.
func QueryRange(s Sender, ins frame.Instruction, what string) (Range, error) {
	resp, err := s.Send(ins)
	if err != nil {
		return Range{}, err
	}
	vals, err := ParseInts(resp.ContentString())
	if err != nil {
		return Range{}, &SetupError{What: what, Content: resp.ContentString()}
	}
	return Range{Max: vals[0]}, nil
}

// QueryInts sends a report instruction and parses all values.
func QueryInts(s Sender, ins frame.Instruction) ([]int, error) {
	resp, err := s.Send(ins)
	if err != nil {
		return nil, err
	}
	vals, err := ParseInts(resp.ContentString())
	if err != nil {
		return nil, &ReportError{Instruction: ins.String(), Content: resp.ContentString()}
	}
	return vals, nil
}

// CheckSpeed validates a speed value.
func CheckSpeed(speed int) error {
	return Range{Max: MaxSpeed}.Check("speed", speed)
}
