package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseAll(p *Parser, data []byte) (frames [][]byte, dropped int) {
	for _, b := range data {
		if pr := p.Parse(b); pr.Frame != nil {
			frames = append(frames, pr.Frame)
			dropped += pr.Dropped
		}
	}
	return
}

func TestParser(t *testing.T) {
	ack := []byte("\x02QA1\x03\x20")
	resp := []byte("\x02QA1@8\x03\x58")

	testCases := []struct {
		name    string
		in      []byte
		frames  [][]byte
		dropped int
	}{
		{"ack and response", append(append([]byte{}, ack...), resp...), [][]byte{ack, resp}, 0},
		{"skip garbage", append([]byte("xyz"), resp...), [][]byte{resp}, 3},
		{"etx checksum", []byte("\x02GD1\x03\x03"), [][]byte{[]byte("\x02GD1\x03\x03")}, 0},
		{"partial", resp[:4], nil, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			frames, dropped := parseAll(&p, tc.in)
			require.Equal(t, tc.frames, frames)
			require.Equal(t, tc.dropped, dropped)
		})
	}
}

func TestParserReset(t *testing.T) {
	var p Parser
	resp := []byte("\x02QA1@8\x03\x58")
	frames, _ := parseAll(&p, resp[:3])
	require.Empty(t, frames)
	require.True(t, p.Receiving())
	p.Reset()
	require.False(t, p.Receiving())
	frames, dropped := parseAll(&p, resp)
	require.Equal(t, [][]byte{resp}, frames)
	require.Zero(t, dropped)
}

func TestParserOversized(t *testing.T) {
	var p Parser
	resp := []byte("\x02QA1@8\x03\x58")
	junk := append([]byte{STX}, bytes.Repeat([]byte{'x'}, MaxFrameSize)...)
	frames, dropped := parseAll(&p, append(junk, resp...))
	require.Equal(t, [][]byte{resp}, frames)
	require.Equal(t, len(junk), dropped)
}
