package frame

import (
	"fmt"
)

// Protocol markers.
const (
	STX byte = 0x02
	ETX byte = 0x03
)

// Frame sizes.
const (
	// AckSize is the size of an acknowledgment frame.
	AckSize = 6
	// MinResponseSize is the smallest response: a status and no content.
	MinResponseSize = 7
	// MaxFrameSize bounds a frame on the wire.
	MaxFrameSize = 256
)

// ChannelOffset is added by the instrument to the request channel in replies.
const ChannelOffset = 16

// StatusBase is the status byte value meaning success.
const StatusBase = 0x40

// Frame is a decoded incoming frame, either *Ack or *Response.
type Frame interface {
	Bytes() []byte
	DeviceAddr() string
}

// Ack is the acknowledgment frame. It must be echoed back unchanged.
type Ack struct {
	Data []byte
}

// Bytes implements Frame.
func (a *Ack) Bytes() []byte { return a.Data }

// DeviceAddr implements Frame.
func (a *Ack) DeviceAddr() string { return string(a.Data[2:4]) }

// Response is a parsed response frame.
type Response struct {
	Channel  byte
	Device   string
	Status   byte
	Content  []byte
	Checksum byte

	Data []byte
}

// Bytes implements Frame.
func (r *Response) Bytes() []byte { return r.Data }

// DeviceAddr implements Frame.
func (r *Response) DeviceAddr() string { return r.Device }

// StatusCode returns the decoded status, 0 means success.
func (r *Response) StatusCode() int { return DecodeStatus(r.Status) }

// RequestChannel recovers the request channel from the reply channel.
func (r *Response) RequestChannel(offset int) byte { return byte(int(r.Channel) - offset) }

// ContentString returns content as a string.
func (r *Response) ContentString() string { return string(r.Content) }

// Checksum calculates XOR of all bytes.
func Checksum(data []byte) byte {
	var x byte
	for _, b := range data {
		x ^= b
	}
	return x
}

// DecodeStatus converts a status byte to the numeric error code.
func DecodeStatus(b byte) int {
	return int(b) - StatusBase
}

// Verify checks the start marker, end marker and checksum of a complete frame.
func Verify(data []byte) error {
	if len(data) < AckSize {
		return &FrameError{Data: data, Reason: fmt.Sprintf("frame too short (%d bytes)", len(data))}
	}
	if data[0] != STX {
		return &FrameError{Data: data, Reason: "missing STX"}
	}
	if data[len(data)-2] != ETX {
		return &FrameError{Data: data, Reason: "missing ETX"}
	}
	if sum := Checksum(data[:len(data)-1]); sum != data[len(data)-1] {
		return &FrameError{Data: data, Reason: fmt.Sprintf("checksum mismatch: want 0x%02x, got 0x%02x", sum, data[len(data)-1])}
	}
	return nil
}

// Encode builds the request frame of ins on channel.
func Encode(channel byte, ins Instruction) ([]byte, error) {
	if len(ins.Device) != 2 {
		return nil, &FrameError{Reason: fmt.Sprintf("invalid device address %q", ins.Device)}
	}
	body := ins.Body()
	b := make([]byte, 0, len(body)+6)
	b = append(b, STX, channel)
	b = append(b, ins.Device...)
	b = append(b, body...)
	b = append(b, ETX)
	b = append(b, Checksum(b))
	if err := Verify(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseRequest decodes a request frame produced by Encode.
// The body round trips but its split may not: the mnemonic is the leading
// run of letters, so a first param starting with a letter joins it, and a
// lone absent param encodes to nothing and decodes as no params.
func ParseRequest(data []byte) (byte, Instruction, error) {
	if err := Verify(data); err != nil {
		return 0, Instruction{}, err
	}
	mnemonic, params := parseBody(string(data[4 : len(data)-2]))
	return data[1], Instruction{Device: string(data[2:4]), Mnemonic: mnemonic, Params: params}, nil
}

// Decode classifies an incoming frame by its length and parses it.
func Decode(data []byte) (Frame, error) {
	if err := Verify(data); err != nil {
		return nil, err
	}
	if len(data) == AckSize {
		return &Ack{Data: data}, nil
	}
	content := make([]byte, len(data)-MinResponseSize)
	copy(content, data[5:len(data)-2])
	return &Response{
		Channel:  data[1],
		Device:   string(data[2:4]),
		Status:   data[4],
		Content:  content,
		Checksum: data[len(data)-1],
		Data:     data,
	}, nil
}

// EncodeAck builds an acknowledgment frame, used by the simulator.
func EncodeAck(channel byte, device string) []byte {
	b := []byte{STX, channel, device[0], device[1], ETX, 0}
	b[5] = Checksum(b[:5])
	return b
}

// EncodeResponse builds a response frame, used by the simulator.
func EncodeResponse(channel byte, device string, status int, content string) []byte {
	b := make([]byte, 0, len(content)+MinResponseSize)
	b = append(b, STX, channel, device[0], device[1], byte(StatusBase+status))
	b = append(b, content...)
	b = append(b, ETX)
	return append(b, Checksum(b))
}
