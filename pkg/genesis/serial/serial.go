// Package serial opens the serial line to the instrument.
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Defaults of the instrument serial line.
const (
	DefaultBaud = 9600
	// DefaultReadTimeout bounds a single Read so callers can check
	// their own deadlines.
	DefaultReadTimeout = 100 * time.Millisecond
)

// Port is a serial line.
// It has no flush, a tty flush also drops output not yet sent.
type Port interface {
	io.ReadWriteCloser

	// Config returns the configuration the port was opened with.
	Config() Config
}

// Config is the serial line configuration.
type Config struct {
	// Device path, e.g. /dev/ttyUSB0 or COM3.
	Device string
	Baud   int
	// ReadTimeout bounds a single Read, 0 blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration of the instrument on device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
	}
}

// WithBaud sets the baud rate.
func (c *Config) WithBaud(baud int) *Config {
	c.Baud = baud
	return c
}

// NativePort is a Port backed by an OS serial device.
type NativePort struct {
	port *serial.Port
	cfg  Config
}

// Open opens a native serial port, 8N1.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device not specified")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port, cfg: *cfg}, nil
}

// Config returns the configuration the port was opened with.
func (p *NativePort) Config() Config {
	return p.cfg
}

// Read reads available data. A read timeout returns 0 bytes and no error.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the port.
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}
