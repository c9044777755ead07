// Package liha drives the Liquid Handling arm, a multi-tip pipetting arm.
package liha

import (
	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// Defaults.
const (
	DefaultDevice = "A1"
	// DefaultMinimumPitch is the smallest Y spacing between tips in 0.1 mm.
	DefaultMinimumPitch = 90
)

// LiHa is the Liquid Handling arm.
type LiHa struct {
	// Device is the address of the arm.
	Device string
	// MinimumPitch is added to the requested Y spacing.
	MinimumPitch int
	// GroupChannel tags group exchanges with the diluters.
	GroupChannel byte
	// WashStation is used by Wash.
	WashStation WashStation

	sender  device.GroupSender
	x, y, z device.Range
	tips    []bool
	pitch   int
}

// New creates a LiHa. Setup must be called before use.
func New(s device.GroupSender) *LiHa {
	return &LiHa{
		Device:       DefaultDevice,
		MinimumPitch: DefaultMinimumPitch,
		GroupChannel: comm.DefaultGroupChannel,
		WashStation:  DefaultWashStation,
		sender:       s,
		pitch:        DefaultMinimumPitch,
	}
}

// Setup queries the number of tips and the travel of X, Y and Z.
// All tips are active afterwards.
func (l *LiHa) Setup() error {
	resp, err := l.sender.Send(frame.New(l.Device, "RNT", 1))
	if err != nil {
		return err
	}
	vals, err := device.ParseInts(resp.ContentString())
	if err != nil || vals[0] <= 0 {
		return &device.SetupError{What: "tips quantity", Content: resp.ContentString()}
	}
	tips := vals[0]

	x, err := device.QueryRange(l.sender, frame.New(l.Device, "RPX", 5), "machine x range")
	if err != nil {
		return err
	}
	y, err := device.QueryRange(l.sender, frame.New(l.Device, "RPY", 5), "machine y range")
	if err != nil {
		return err
	}
	z, err := device.QueryRange(l.sender, frame.New(l.Device, "RPZ", 5), "machine z range")
	if err != nil {
		return err
	}
	y.Min = device.MinY

	l.x, l.y, l.z = x, y, z
	l.tips = make([]bool, tips)
	l.ActivateAllTips()
	l.pitch = l.MinimumPitch
	return nil
}

// TipsQuantity returns the number of tips.
func (l *LiHa) TipsQuantity() int {
	return len(l.tips)
}

// XRange returns the travel of X.
func (l *LiHa) XRange() int { return l.x.Max }

// YRange returns the travel of Y.
func (l *LiHa) YRange() int { return l.y.Max }

// ZRange returns the travel of Z.
func (l *LiHa) ZRange() int { return l.z.Max }

// Pitch returns the Y spacing sent with Y moves.
func (l *LiHa) Pitch() int { return l.pitch }

// CurrentX reports the X position.
func (l *LiHa) CurrentX() (int, error) {
	vals, err := device.QueryInts(l.sender, frame.New(l.Device, "RPX", 0))
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// CurrentY reports the Y position and the Y spacing.
func (l *LiHa) CurrentY() (y int, space int, err error) {
	vals, err := device.QueryInts(l.sender, frame.New(l.Device, "RPY", 0))
	if err != nil {
		return 0, 0, err
	}
	y = vals[0]
	if len(vals) > 1 {
		space = vals[1]
	}
	return
}

// CurrentZ reports the logical Z position of every tip.
func (l *LiHa) CurrentZ() ([]int, error) {
	vals, err := device.QueryInts(l.sender, frame.New(l.Device, "RPZ", 0))
	if err != nil {
		return nil, err
	}
	for n, v := range vals {
		vals[n] = l.z.Invert(v)
	}
	return vals, nil
}

func (l *LiHa) ready() error {
	if len(l.tips) == 0 {
		return device.ErrNotSetup
	}
	return nil
}
