package mqtt

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/golang/protobuf/ptypes/timestamp"

	"github.com/robotalks/genesis.go/pkg/genesis/comm"
)

// TraceTopic is the topic suffix frames are published on: <id>/trace.
const TraceTopic = "trace"

// ConnectTimeout bounds the wait for the broker.
const ConnectTimeout = 5 * time.Second

// TraceTopicOf returns the trace topic of an instrument.
func TraceTopicOf(instrumentID string) string {
	return instrumentID + "/" + TraceTopic
}

// TraceEvent is a frame seen on the serial line.
type TraceEvent struct {
	Time      time.Time
	Direction comm.Direction
	Frame     []byte
}

// String implements fmt.Stringer.
func (e *TraceEvent) String() string {
	return fmt.Sprintf("%s %s %q", e.Time.Format("15:04:05.000"), e.Direction, e.Frame)
}

// EncodeTrace marshals the event as a protobuf Struct.
func EncodeTrace(ev *TraceEvent) ([]byte, error) {
	ts, err := ptypes.TimestampProto(ev.Time)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"dir":   stringValue(ev.Direction.String()),
		"frame": stringValue(hex.EncodeToString(ev.Frame)),
		"time": {Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{
			Fields: map[string]*structpb.Value{
				"seconds": numberValue(float64(ts.Seconds)),
				"nanos":   numberValue(float64(ts.Nanos)),
			},
		}}},
	}}
	return proto.Marshal(msg)
}

// DecodeTrace unmarshals an event encoded by EncodeTrace.
func DecodeTrace(payload []byte) (*TraceEvent, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	ev := &TraceEvent{Direction: comm.Incoming}
	if msg.Fields["dir"].GetStringValue() == comm.Outgoing.String() {
		ev.Direction = comm.Outgoing
	}
	data, err := hex.DecodeString(msg.Fields["frame"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid trace frame: %w", err)
	}
	ev.Frame = data
	tf := msg.Fields["time"].GetStructValue().GetFields()
	ts := &timestamp.Timestamp{
		Seconds: int64(tf["seconds"].GetNumberValue()),
		Nanos:   int32(tf["nanos"].GetNumberValue()),
	}
	if ev.Time, err = ptypes.Timestamp(ts); err != nil {
		return nil, err
	}
	return ev, nil
}

// Tracer publishes every frame on the serial line to MQTT.
type Tracer struct {
	Queue *Queue
	Topic string
}

// NewTracer connects to the broker and creates a Tracer publishing to the
// trace topic of the instrument.
func NewTracer(brokerURL, instrumentID string) (*Tracer, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		q.Close()
		return nil, fmt.Errorf("connect %s: timeout", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &Tracer{Queue: q, Topic: TraceTopicOf(instrumentID)}, nil
}

// TraceFrame implements comm.Tracer.
func (t *Tracer) TraceFrame(dir comm.Direction, data []byte) {
	payload, err := EncodeTrace(&TraceEvent{Time: time.Now(), Direction: dir, Frame: data})
	if err != nil {
		glog.Warningf("encode trace: %v", err)
		return
	}
	t.Queue.Pub(t.Topic, payload)
}

// Close implements io.Closer.
func (t *Tracer) Close() error {
	return t.Queue.Close()
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}
