package comm

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// DefaultReadTimeout is the default wait for a frame. Motion commands are
// answered when the move completes, so it is generous.
const DefaultReadTimeout = 5 * time.Minute

// Transport drives exchanges over a single serial stream.
type Transport struct {
	// ChannelOffset is added by the instrument to the channel of a reply.
	ChannelOffset int
	// Tracer observes every frame written or read.
	Tracer Tracer

	rw     io.ReadWriter
	reader *FrameReader
	pool   *ChannelPool

	lock      sync.Mutex // one exchange at a time
	stateLock sync.RWMutex
	closed    bool
}

// NewTransport creates a Transport over rw with default settings.
func NewTransport(rw io.ReadWriter) *Transport {
	return &Transport{
		ChannelOffset: frame.ChannelOffset,
		Tracer:        LogTracer{},
		rw:            rw,
		reader:        NewFrameReader(rw, DefaultReadTimeout),
		pool:          NewChannelPool(DefaultChannels),
	}
}

// WithChannels replaces the pool of solo channels.
func (t *Transport) WithChannels(tokens string) *Transport {
	t.pool = NewChannelPool(tokens)
	return t
}

// WithReadTimeout sets the wait for a frame.
func (t *Transport) WithReadTimeout(timeout time.Duration) *Transport {
	t.reader.Timeout = timeout
	return t
}

// WithTracer adds a tracer.
func (t *Transport) WithTracer(tracer Tracer) *Transport {
	if t.Tracer == nil {
		t.Tracer = tracer
	} else {
		t.Tracer = MultiTracer{t.Tracer, tracer}
	}
	return t
}

// Channels gets the pool of solo channels.
func (t *Transport) Channels() *ChannelPool {
	return t.pool
}

// Send performs a solo exchange: the request is sent on a borrowed channel and
// the response must come back on the same channel with status 0.
func (t *Transport) Send(ins frame.Instruction) (*frame.Response, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.Closed() {
		return nil, ErrClosed
	}

	ch, err := t.pool.Acquire()
	if err != nil {
		return nil, err
	}
	req, err := frame.Encode(ch, ins)
	if err != nil {
		t.pool.Release(ch)
		return nil, err
	}

	t.discardInput()
	if err = t.write(req); err != nil {
		return nil, t.abort(err)
	}

	var (
		acks []*frame.Ack
		resp *frame.Response
	)
	for len(acks) == 0 || resp == nil {
		f, err := t.read()
		if err != nil {
			return nil, t.abort(err)
		}
		switch f := f.(type) {
		case *frame.Ack:
			acks = append(acks, f)
		case *frame.Response:
			if resp != nil {
				glog.Warningf("%s: dropped extra response %q", ins.Device, f.Data)
				continue
			}
			resp = f
		}
	}
	for _, ack := range acks {
		if err := t.write(ack.Data); err != nil {
			return nil, t.abort(err)
		}
	}
	if err := t.verify(resp, ch); err != nil {
		return nil, t.abort(err)
	}
	t.pool.Release(ch)
	return resp, nil
}

// SendGroup performs a group exchange: all requests are written on
// groupChannel before any reply is read, then acknowledgments and responses
// are collected in any order until every device in the group has answered.
// Replies from devices outside the group are dropped. The group either
// succeeds as a whole or fails and closes the transport. Responses are
// ordered by device address.
func (t *Transport) SendGroup(inss []frame.Instruction, groupChannel byte) ([]*frame.Response, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.Closed() {
		return nil, ErrClosed
	}
	if len(inss) == 0 {
		return nil, nil
	}

	reqs := make([][]byte, len(inss))
	members := make(map[string]bool, len(inss))
	for n, ins := range inss {
		if members[ins.Device] {
			return nil, fmt.Errorf("%s: device appears twice in group", ins.Device)
		}
		members[ins.Device] = true
		req, err := frame.Encode(groupChannel, ins)
		if err != nil {
			return nil, err
		}
		reqs[n] = req
	}

	t.discardInput()
	for _, req := range reqs {
		if err := t.write(req); err != nil {
			return nil, t.abort(err)
		}
	}

	var acks []*frame.Ack
	acked := make(map[string]bool, len(inss))
	responses := make(map[string]*frame.Response, len(inss))
	for len(acked) < len(inss) || len(responses) < len(inss) {
		f, err := t.read()
		if err != nil {
			return nil, t.abort(err)
		}
		switch f := f.(type) {
		case *frame.Ack:
			acks = append(acks, f)
			if dev := f.DeviceAddr(); members[dev] {
				acked[dev] = true
			}
		case *frame.Response:
			if !members[f.Device] {
				glog.Warningf("%s: dropped response outside the group %q", f.Device, f.Data)
				continue
			}
			if _, exists := responses[f.Device]; exists {
				glog.Warningf("%s: dropped duplicate response %q", f.Device, f.Data)
				continue
			}
			responses[f.Device] = f
		}
	}

	for _, ack := range acks {
		if err := t.write(ack.Data); err != nil {
			return nil, t.abort(err)
		}
	}

	devices := make([]string, 0, len(responses))
	for dev := range responses {
		devices = append(devices, dev)
	}
	sort.Strings(devices)
	result := make([]*frame.Response, len(devices))
	for n, dev := range devices {
		resp := responses[dev]
		if err := t.verify(resp, groupChannel); err != nil {
			return nil, t.abort(err)
		}
		result[n] = resp
	}

	if n := t.discardInput(); n > 0 {
		glog.Warningf("discarded %d unsolicited bytes after group exchange", n)
	}
	return result, nil
}

// ReadFrame reads and traces a raw frame.
func (t *Transport) ReadFrame() ([]byte, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.Closed() {
		return nil, ErrClosed
	}
	return t.readRaw()
}

// WriteFrame validates and writes a raw frame.
func (t *Transport) WriteFrame(data []byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.Closed() {
		return ErrClosed
	}
	return t.write(data)
}

// Closed indicates the transport is closed.
func (t *Transport) Closed() bool {
	t.stateLock.RLock()
	defer t.stateLock.RUnlock()
	return t.closed
}

// Close closes the transport and the underlying stream if it's an io.Closer.
func (t *Transport) Close() error {
	t.stateLock.Lock()
	if t.closed {
		t.stateLock.Unlock()
		return nil
	}
	t.closed = true
	t.stateLock.Unlock()
	if closer, ok := t.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Fail closes the transport if err is fatal and returns err.
// Callers use it when an operation returns an error which, by contract,
// ends the session (e.g. a ValidationError).
func (t *Transport) Fail(err error) error {
	if IsFatal(err) && !t.Closed() {
		glog.Errorf("closing transport: %v", err)
		t.Close()
	}
	return err
}

func (t *Transport) verify(resp *frame.Response, ch byte) error {
	if resp.RequestChannel(t.ChannelOffset) != ch || resp.StatusCode() != frame.ErrCodeSuccess {
		return newProtocolError(resp, ch, t.ChannelOffset)
	}
	return nil
}

func (t *Transport) abort(err error) error {
	glog.Errorf("closing transport: %v", err)
	t.Close()
	return err
}

func (t *Transport) readRaw() ([]byte, error) {
	data, err := t.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	if tr := t.Tracer; tr != nil {
		tr.TraceFrame(Incoming, data)
	}
	return data, nil
}

func (t *Transport) read() (frame.Frame, error) {
	data, err := t.readRaw()
	if err != nil {
		return nil, err
	}
	return frame.Decode(data)
}

func (t *Transport) write(data []byte) error {
	if err := frame.Verify(data); err != nil {
		return err
	}
	if tr := t.Tracer; tr != nil {
		tr.TraceFrame(Outgoing, data)
	}
	n, err := t.rw.Write(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	return err
}

func (t *Transport) discardInput() int {
	return t.reader.Drain()
}
