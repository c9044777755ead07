// Package roma drives the Robotic Manipulator arm which grips and moves plates.
package roma

import (
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// DefaultDevice is the address of the arm.
const DefaultDevice = "R1"

// MaxDegrees is the largest rotation.
const MaxDegrees = 270

// RoMa is the plate gripping arm.
type RoMa struct {
	Device string

	sender        device.Sender
	x, y, z, r, g device.Range
	setup         bool
}

// New creates a RoMa. Setup must be called before use.
func New(s device.Sender) *RoMa {
	return &RoMa{Device: DefaultDevice, sender: s}
}

// Setup queries the travel of all axes.
func (m *RoMa) Setup() error {
	var err error
	axes := []struct {
		name string
		rng  *device.Range
	}{
		{"X", &m.x}, {"Y", &m.y}, {"Z", &m.z}, {"R", &m.r}, {"G", &m.g},
	}
	for _, axis := range axes {
		*axis.rng, err = device.QueryRange(m.sender,
			frame.New(m.Device, "RP"+axis.name, 5), "machine "+axis.name+" range")
		if err != nil {
			return err
		}
	}
	m.y.Min = device.MinY
	m.setup = true
	return nil
}

// XRange returns the travel of X.
func (m *RoMa) XRange() int { return m.x.Max }

// YRange returns the travel of Y.
func (m *RoMa) YRange() int { return m.y.Max }

// ZRange returns the travel of Z.
func (m *RoMa) ZRange() int { return m.z.Max }

// RRange returns the travel of the rotator in 0.1 degree.
func (m *RoMa) RRange() int { return m.r.Max }

// GRange returns the travel of the gripper.
func (m *RoMa) GRange() int { return m.g.Max }

// MoveX moves X to an absolute position.
func (m *RoMa) MoveX(x int) error {
	return m.move("PAX", "x position", m.x, x)
}

// MoveY moves Y to an absolute position.
func (m *RoMa) MoveY(y int) error {
	return m.move("PAY", "y position", m.y, y)
}

// MoveZ moves Z to an absolute position, 0 is fully retracted.
func (m *RoMa) MoveZ(z int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.z.Check("z position", z); err != nil {
		return err
	}
	_, err := m.sender.Send(frame.New(m.Device, "PAZ", m.z.Invert(z)))
	return err
}

// MoveZWithSpeed moves Z with speed in 0.1 mm/s.
func (m *RoMa) MoveZWithSpeed(z, speed int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.z.Check("z position", z); err != nil {
		return err
	}
	if err := device.CheckSpeed(speed); err != nil {
		return err
	}
	_, err := m.sender.Send(frame.New(m.Device, "MAZ", m.z.Invert(z), speed))
	return err
}

// RotateTo rotates the gripper to an absolute angle in degrees.
func (m *RoMa) RotateTo(degrees int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := (device.Range{Max: MaxDegrees}).Check("degree", degrees); err != nil {
		return err
	}
	return m.move("PAR", "r position", m.r, degrees*10)
}

// MoveGripper moves the gripper fingers to an absolute width.
func (m *RoMa) MoveGripper(g int) error {
	return m.move("PAG", "g position", m.g, g)
}

// CurrentX reports the X position.
func (m *RoMa) CurrentX() (int, error) { return m.report("RPX") }

// CurrentY reports the Y position.
func (m *RoMa) CurrentY() (int, error) { return m.report("RPY") }

// CurrentZ reports the logical Z position.
func (m *RoMa) CurrentZ() (int, error) {
	z, err := m.report("RPZ")
	if err != nil {
		return 0, err
	}
	return m.z.Invert(z), nil
}

// CurrentR reports the rotator position in 0.1 degree.
func (m *RoMa) CurrentR() (int, error) { return m.report("RPR") }

// CurrentG reports the gripper position.
func (m *RoMa) CurrentG() (int, error) { return m.report("RPG") }

func (m *RoMa) move(mnemonic, field string, rng device.Range, v int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := rng.Check(field, v); err != nil {
		return err
	}
	_, err := m.sender.Send(frame.New(m.Device, mnemonic, v))
	return err
}

func (m *RoMa) report(mnemonic string) (int, error) {
	vals, err := device.QueryInts(m.sender, frame.New(m.Device, mnemonic, 0))
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func (m *RoMa) ready() error {
	if !m.setup {
		return device.ErrNotSetup
	}
	return nil
}
