// Package sim simulates the instrument at the serial line level.
package sim

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// Defaults of the simulated instrument.
const (
	DefaultFirmware = "GENESIS V4.10"
	DefaultTips     = 8
	// DefaultPresence reports LiHa, PosID and RoMa all present.
	DefaultPresence = "@@@"
	// DefaultPollInterval is how long Read waits for a reply.
	DefaultPollInterval = 10 * time.Millisecond
)

// ErrClosed is returned when writing to a closed Simulator.
var ErrClosed = errors.New("simulator closed")

// Fault alters the reply to the next request matching Device and Mnemonic.
// Empty Device or Mnemonic matches any.
type Fault struct {
	Device   string
	Mnemonic string

	// Status replaces the reply status.
	Status int
	// ChannelShift is added to the reply channel.
	ChannelShift int
	// Duplicate sends the response twice.
	Duplicate bool
	// ResponseFirst sends the response before the acknowledgment.
	ResponseFirst bool
	// Silent sends no reply at all.
	Silent bool
}

func (f *Fault) match(ins frame.Instruction) bool {
	return (f.Device == "" || f.Device == ins.Device) &&
		(f.Mnemonic == "" || f.Mnemonic == ins.Mnemonic)
}

// Request is a request received by the Simulator.
type Request struct {
	Channel     byte
	Instruction frame.Instruction
}

// Simulator is an io.ReadWriteCloser behaving like the instrument.
// Requests written are answered with an acknowledgment and a response
// on the request channel plus the channel offset.
type Simulator struct {
	Firmware      string
	Presence      string
	ChannelOffset int
	PollInterval  time.Duration
	// Liquid indicates liquid detection finds a surface.
	Liquid bool

	lock     sync.Mutex
	cond     *sync.Cond
	parser   frame.Parser
	out      bytes.Buffer
	closed   bool
	faults   []*Fault
	requests []Request
	acks     [][]byte
	arms     map[string]*arm
	diluters map[string]*diluter
}

// New creates a Simulator with the default instrument.
func New() *Simulator {
	s := &Simulator{
		Firmware:      DefaultFirmware,
		Presence:      DefaultPresence,
		ChannelOffset: frame.ChannelOffset,
		PollInterval:  DefaultPollInterval,
		Liquid:        true,
		arms: map[string]*arm{
			"A1": newLiHa(DefaultTips),
			"R1": newRoMa(),
		},
		diluters: make(map[string]*diluter),
	}
	s.cond = sync.NewCond(&s.lock)
	return s
}

// Inject queues a one-shot fault.
func (s *Simulator) Inject(f Fault) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.faults = append(s.faults, &f)
}

// Feed queues raw bytes to be read, e.g. unsolicited or corrupted data.
func (s *Simulator) Feed(data []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.out.Write(data)
	s.cond.Broadcast()
}

// Requests returns the requests received so far.
func (s *Simulator) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Request(nil), s.requests...)
}

// Acks returns the acknowledgments echoed back by the host.
func (s *Simulator) Acks() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([][]byte(nil), s.acks...)
}

// Position returns the raw position of an axis of an arm, e.g. ("A1", 'Z').
func (s *Simulator) Position(device string, axis byte) []int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if a := s.arms[device]; a != nil && a.axes[axis] != nil {
		return append([]int(nil), a.axes[axis].pos...)
	}
	return nil
}

// Plunger returns the raw volume held by a diluter, e.g. "D1".
func (s *Simulator) Plunger(device string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if d := s.diluters[device]; d != nil {
		return d.volume
	}
	return 0
}

// SetRange sets the travel of an axis of an arm.
func (s *Simulator) SetRange(device string, axis byte, max int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if a := s.arms[device]; a != nil {
		if ax := a.axes[axis]; ax != nil {
			ax.max = max
		}
	}
}

// Write implements io.Writer.
func (s *Simulator) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	for _, b := range p {
		pr := s.parser.Parse(b)
		if pr.Frame == nil {
			continue
		}
		if len(pr.Frame) == frame.AckSize {
			s.acks = append(s.acks, pr.Frame)
			continue
		}
		ch, ins, err := frame.ParseRequest(pr.Frame)
		if err != nil {
			glog.Warningf("sim: invalid request %q: %v", pr.Frame, err)
			continue
		}
		s.requests = append(s.requests, Request{Channel: ch, Instruction: ins})
		s.reply(ch, ins)
	}
	s.cond.Broadcast()
	return len(p), nil
}

// Read implements io.Reader. It waits up to PollInterval for data and
// returns 0 bytes without error if nothing arrives, like a serial port
// with read timeout.
func (s *Simulator) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.out.Len() == 0 && !s.closed {
		timer := time.AfterFunc(s.PollInterval, func() {
			s.lock.Lock()
			s.cond.Broadcast()
			s.lock.Unlock()
		})
		s.cond.Wait()
		timer.Stop()
	}
	if s.closed {
		return 0, io.EOF
	}
	if s.out.Len() == 0 {
		return 0, nil
	}
	return s.out.Read(p)
}

// Close implements io.Closer.
func (s *Simulator) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	s.cond.Broadcast()
	return nil
}

func (s *Simulator) takeFault(ins frame.Instruction) *Fault {
	for n, f := range s.faults {
		if f.match(ins) {
			s.faults = append(s.faults[:n], s.faults[n+1:]...)
			return f
		}
	}
	return nil
}

func (s *Simulator) reply(ch byte, ins frame.Instruction) {
	status, content := s.execute(ins)
	replyCh := byte(int(ch) + s.ChannelOffset)
	f := s.takeFault(ins)
	if f != nil {
		if f.Silent {
			return
		}
		if f.Status != 0 {
			status = f.Status
		}
		replyCh = byte(int(replyCh) + f.ChannelShift)
	}
	ack := frame.EncodeAck(replyCh, ins.Device)
	resp := frame.EncodeResponse(replyCh, ins.Device, status, content)
	if f != nil && f.ResponseFirst {
		s.out.Write(resp)
		s.out.Write(ack)
	} else {
		s.out.Write(ack)
		s.out.Write(resp)
	}
	if f != nil && f.Duplicate {
		s.out.Write(resp)
	}
}
