package frame

// Parser splits a byte stream into frames.
// Bytes outside STX...ETX,xor are skipped.
type Parser struct {
	state   parseState
	buf     []byte
	dropped int
}

type parseState int

const (
	stateSync     parseState = iota // waiting for STX
	stateBody                       // waiting for ETX
	stateChecksum                   // waiting for checksum byte
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Frame is the complete frame, including STX, ETX and checksum.
	Frame []byte
	// Dropped is the number of bytes skipped before Frame started.
	Dropped int
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateSync:
		if b != STX {
			p.dropped++
			return
		}
		p.buf = append(p.buf[:0], b)
		p.state = stateBody
	case stateBody:
		p.buf = append(p.buf, b)
		if b == ETX {
			p.state = stateChecksum
		} else if len(p.buf) >= MaxFrameSize-1 {
			p.dropped += len(p.buf)
			p.resync()
		}
	case stateChecksum:
		pr.Frame = append([]byte(nil), p.buf...)
		pr.Frame = append(pr.Frame, b)
		pr.Dropped, p.dropped = p.dropped, 0
		p.resync()
	}
	return
}

// Receiving indicates a frame is partially received.
func (p *Parser) Receiving() bool {
	return p.state != stateSync
}

// Reset discards partially received data.
func (p *Parser) Reset() {
	p.dropped = 0
	p.resync()
}

func (p *Parser) resync() {
	p.state = stateSync
	p.buf = p.buf[:0]
}
