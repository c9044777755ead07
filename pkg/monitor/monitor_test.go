package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
	"github.com/robotalks/genesis.go/pkg/mqtt"
)

func TestDescribe(t *testing.T) {
	testCases := []struct {
		dir    comm.Direction
		data   string
		expect string
	}{
		{comm.Outgoing, "\x02AA1PAX100\x03\x48", "[A] A1PAX100"},
		{comm.Outgoing, "\x02QA1\x03\x20", "[Q] A1 ack"},
		{comm.Incoming, "\x02QA1\x03\x20", "[Q] A1 ack"},
		{comm.Incoming, "\x02QA1@8\x03\x58", `[Q] A1 status 0 "8"`},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, Describe(tc.dir, []byte(tc.data)))
	}
	desc := Describe(comm.Incoming, []byte("\x02QA1I\x03\x69"))
	require.True(t, strings.HasPrefix(desc, "[Q] A1 status 9 ("), desc)
	require.NotEmpty(t, Describe(comm.Incoming, []byte("junk")))
}

func TestHandleTrace(t *testing.T) {
	m := New()
	events, unsub := m.Subscribe()
	payload, err := mqtt.EncodeTrace(&mqtt.TraceEvent{
		Time:      time.Now(),
		Direction: comm.Incoming,
		Frame:     frame.EncodeAck('Q', "A1"),
	})
	require.NoError(t, err)

	m.HandleTrace("bench/trace", payload)
	ev := <-events
	require.Equal(t, "bench", ev.Instrument)
	require.Equal(t, comm.Incoming.String(), ev.Direction)
	require.Equal(t, "[Q] A1 ack", ev.Decoded)

	m.HandleTrace("bench/trace", []byte{0xff})
	unsub()
	m.HandleTrace("bench/trace", payload)
	require.Empty(t, events)
}

func TestPublishDropsWhenFull(t *testing.T) {
	m := New()
	events, unsub := m.Subscribe()
	defer unsub()
	for n := 0; n < ClientQueueSize+10; n++ {
		m.Publish(&Event{Decoded: "x"})
	}
	require.Len(t, events, ClientQueueSize)
}

func TestWebsocket(t *testing.T) {
	m := New()
	server := httptest.NewServer(m.Handler())
	defer server.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(server.URL, "http"), "", server.URL)
	require.NoError(t, err)
	defer conn.Close()

	for deadline := time.Now().Add(time.Second); m.subscribers() == 0; {
		require.True(t, time.Now().Before(deadline), "client not subscribed")
		time.Sleep(10 * time.Millisecond)
	}

	m.Publish(&Event{Instrument: "bench", Direction: "<", Decoded: "[Q] A1 ack"})
	var ev Event
	require.NoError(t, websocket.JSON.Receive(conn, &ev))
	require.Equal(t, "bench", ev.Instrument)
	require.Equal(t, "[Q] A1 ack", ev.Decoded)
}

func (m *Monitor) subscribers() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.subs)
}
