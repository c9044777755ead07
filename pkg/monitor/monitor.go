// Package monitor decodes traced frames and streams them to websocket clients.
package monitor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
	"github.com/robotalks/genesis.go/pkg/mqtt"
)

// ClientQueueSize is the number of events buffered per websocket client.
const ClientQueueSize = 64

// Event is a traced frame decoded for display.
type Event struct {
	Instrument string    `json:"instrument"`
	Time       time.Time `json:"time"`
	Direction  string    `json:"dir"`
	Frame      string    `json:"frame"`
	Decoded    string    `json:"decoded"`
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	return fmt.Sprintf("%s %s %s", e.Instrument, e.Direction, e.Decoded)
}

// Describe renders a frame in a readable form.
func Describe(dir comm.Direction, data []byte) string {
	if dir == comm.Outgoing && len(data) != frame.AckSize {
		ch, ins, err := frame.ParseRequest(data)
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("[%c] %s", ch, ins)
	}
	f, err := frame.Decode(data)
	if err != nil {
		return err.Error()
	}
	switch f := f.(type) {
	case *frame.Ack:
		return fmt.Sprintf("[%c] %s ack", f.Data[1], f.DeviceAddr())
	case *frame.Response:
		desc := fmt.Sprintf("[%c] %s status %d", f.Channel, f.Device, f.StatusCode())
		if code := f.StatusCode(); code != frame.ErrCodeSuccess {
			desc += " (" + frame.ErrorCategory(code) + ")"
		}
		if len(f.Content) > 0 {
			desc += fmt.Sprintf(" %q", f.Content)
		}
		return desc
	}
	return fmt.Sprintf("%q", data)
}

// Monitor fans out traced frames to subscribers.
type Monitor struct {
	lock sync.RWMutex
	subs map[chan *Event]struct{}
}

// New creates a Monitor.
func New() *Monitor {
	return &Monitor{subs: make(map[chan *Event]struct{})}
}

// HandleTrace is the mqtt.Handler of <id>/trace topics.
func (m *Monitor) HandleTrace(topic string, payload []byte) {
	ev, err := mqtt.DecodeTrace(payload)
	if err != nil {
		glog.Warningf("%s: bad trace: %v", topic, err)
		return
	}
	m.Publish(&Event{
		Instrument: strings.TrimSuffix(topic, "/"+mqtt.TraceTopic),
		Time:       ev.Time,
		Direction:  ev.Direction.String(),
		Frame:      fmt.Sprintf("%q", ev.Frame),
		Decoded:    Describe(ev.Direction, ev.Frame),
	})
}

// Publish sends an event to all subscribers, slow subscribers miss events.
func (m *Monitor) Publish(ev *Event) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
			glog.V(2).Infof("subscriber queue full, dropped %s", ev)
		}
	}
}

// Subscribe registers a subscriber. The returned func unsubscribes.
func (m *Monitor) Subscribe() (<-chan *Event, func()) {
	ch := make(chan *Event, ClientQueueSize)
	m.lock.Lock()
	m.subs[ch] = struct{}{}
	m.lock.Unlock()
	return ch, func() {
		m.lock.Lock()
		delete(m.subs, ch)
		m.lock.Unlock()
	}
}

// Handler streams events as JSON messages to a websocket client.
func (m *Monitor) Handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()
		events, unsub := m.Subscribe()
		defer unsub()
		glog.Infof("client %s connected", conn.Request().RemoteAddr)
		for ev := range events {
			if err := websocket.JSON.Send(conn, ev); err != nil {
				glog.Infof("client %s disconnected: %v", conn.Request().RemoteAddr, err)
				return
			}
		}
	}
}
