// Package genesis connects to a Genesis liquid handling instrument and
// provides its arms.
package genesis

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/genesis.go/pkg/framework"
	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/config"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
	"github.com/robotalks/genesis.go/pkg/genesis/liha"
	"github.com/robotalks/genesis.go/pkg/genesis/roma"
	"github.com/robotalks/genesis.go/pkg/genesis/serial"
	"github.com/robotalks/genesis.go/pkg/genesis/sim"
	"github.com/robotalks/genesis.go/pkg/mqtt"
)

// MasterDevice is the address of the instrument controller.
const MasterDevice = "M1"

// FirmwarePrefix is the start of supported firmware versions.
const FirmwarePrefix = "GENESIS"

// ErrNotConnected indicates an arm isn't reported by the instrument.
var ErrNotConnected = errors.New("not connected")

// Instrument is a connected instrument.
type Instrument struct {
	Config *config.Config

	transport *comm.Transport
	closers   []io.Closer

	setup    bool
	firmware string
	present  [3]bool // LiHa, PosID, RoMa
	liha     *liha.LiHa
	roma     *roma.RoMa
}

// Open connects to the instrument described by cfg. It opens the serial
// port, or the simulator when cfg.Simulate is set, and enables frame
// tracing to MQTT when configured.
func Open(cfg *config.Config) (*Instrument, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var rw io.ReadWriteCloser
	if cfg.Simulate {
		glog.Info("using simulator")
		rw = sim.New()
	} else {
		port, err := serial.Open(cfg.SerialPort())
		if err != nil {
			return nil, err
		}
		pc := port.Config()
		glog.Infof("opened %s at %d baud", pc.Device, pc.Baud)
		rw = port
	}
	inst := New(rw, cfg)
	if url := cfg.Trace.MQTTURL; url != "" {
		tracer, err := mqtt.NewTracer(url, cfg.InstrumentID())
		if err != nil {
			inst.transport.Close()
			return nil, fmt.Errorf("frame tracing: %w", err)
		}
		inst.transport.WithTracer(tracer)
		inst.closers = append(inst.closers, tracer)
	}
	return inst, nil
}

// New creates an Instrument over an established stream.
func New(rw io.ReadWriter, cfg *config.Config) *Instrument {
	t := comm.NewTransport(rw).
		WithChannels(cfg.Protocol.Channels).
		WithReadTimeout(cfg.Serial.ReadTimeout)
	t.ChannelOffset = cfg.Protocol.ChannelOffset
	return &Instrument{Config: cfg, transport: t}
}

// Transport returns the transport to the instrument.
func (i *Instrument) Transport() *comm.Transport {
	return i.transport
}

// Setup verifies the hardware and firmware, initializes the instrument and
// discovers the connected arms. The transport is closed on failure.
func (i *Instrument) Setup() error {
	content, err := i.query(MasterDevice, "RHW")
	if err != nil {
		return err
	}
	if content != "0" && content != "1" {
		return i.transport.Fail(&device.SetupError{What: "hardware", Content: content})
	}

	if content, err = i.query(MasterDevice, "RFV", 0); err != nil {
		return err
	}
	if !strings.HasPrefix(content, FirmwarePrefix) {
		return i.transport.Fail(&device.SetupError{What: "firmware", Content: content})
	}
	i.firmware = content

	if _, err = i.query(MasterDevice, "PIS"); err != nil {
		return err
	}

	if content, err = i.query(MasterDevice, "REE"); err != nil {
		return err
	}
	if len(content) != len(i.present) {
		return i.transport.Fail(&device.SetupError{What: "equipment status", Content: content})
	}
	for n := range i.present {
		i.present[n] = frame.DecodeStatus(content[n]) == frame.ErrCodeSuccess
	}
	i.setup = true
	glog.Infof("%s: LiHa %v, PosID %v, RoMa %v", i.firmware, i.present[0], i.present[1], i.present[2])
	return nil
}

// Firmware returns the firmware version reported during Setup.
func (i *Instrument) Firmware() string { return i.firmware }

// LiHaConnected indicates the LiHa is present.
func (i *Instrument) LiHaConnected() bool { return i.present[0] }

// PosIDConnected indicates the PosID barcode reader is present.
func (i *Instrument) PosIDConnected() bool { return i.present[1] }

// RoMaConnected indicates the RoMa is present.
func (i *Instrument) RoMaConnected() bool { return i.present[2] }

// LiHa returns the liquid handling arm, set up on first use.
func (i *Instrument) LiHa() (*liha.LiHa, error) {
	if i.liha != nil {
		return i.liha, nil
	}
	if err := i.ready("LiHa", i.present[0]); err != nil {
		return nil, err
	}
	ws, err := i.Config.WashStation()
	if err != nil {
		return nil, err
	}
	l := liha.New(i.transport)
	l.Device = i.Config.LiHa.Device
	l.MinimumPitch = i.Config.LiHa.MinimumPitch
	l.GroupChannel = i.Config.GroupChannel()
	l.WashStation = ws
	if err := l.Setup(); err != nil {
		return nil, i.transport.Fail(err)
	}
	glog.Infof("LiHa: %d tips, range %d,%d,%d", l.TipsQuantity(), l.XRange(), l.YRange(), l.ZRange())
	i.liha = l
	return l, nil
}

// RoMa returns the plate gripping arm, set up on first use.
func (i *Instrument) RoMa() (*roma.RoMa, error) {
	if i.roma != nil {
		return i.roma, nil
	}
	if err := i.ready("RoMa", i.present[2]); err != nil {
		return nil, err
	}
	m := roma.New(i.transport)
	m.Device = i.Config.RoMa.Device
	if err := m.Setup(); err != nil {
		return nil, i.transport.Fail(err)
	}
	glog.Infof("RoMa: range %d,%d,%d,%d,%d", m.XRange(), m.YRange(), m.ZRange(), m.RRange(), m.GRange())
	i.roma = m
	return m, nil
}

// Close waits CloseDelay for the instrument to settle, then closes the
// transport and the stream.
func (i *Instrument) Close() error {
	if d := i.Config.CloseDelay; d > 0 && !i.transport.Closed() {
		time.Sleep(d)
	}
	errs := &framework.AggregatedError{}
	errs.Add(i.transport.Close())
	for _, c := range i.closers {
		errs.Add(c.Close())
	}
	return errs.Aggregate()
}

func (i *Instrument) ready(name string, present bool) error {
	if !i.setup {
		return device.ErrNotSetup
	}
	if !present {
		return fmt.Errorf("%s: %w", name, ErrNotConnected)
	}
	return nil
}

func (i *Instrument) query(dev, mnemonic string, params ...int) (string, error) {
	resp, err := i.transport.Send(frame.New(dev, mnemonic, params...))
	if err != nil {
		return "", err
	}
	return resp.ContentString(), nil
}
